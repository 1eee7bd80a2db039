package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"SkyIndex/internal/domain/models"
	dservice "SkyIndex/internal/domain/service"
	pkgcache "SkyIndex/pkg/cache"
	xhttp "SkyIndex/pkg/http"
	applogger "SkyIndex/pkg/logger"

	"github.com/markcheno/go-talib"
)

const (
	lookbackDays = 90

	maLongPeriod  = 30
	maShortPeriod = 5
	rsiPeriod     = 14
	volumePeriod  = 30

	candleCacheTTL = 5 * time.Minute
)

// Client builds instrument samples from the provider's daily candle API,
// patched with live prices from the book when available. One unreachable
// symbol degrades to a nil-field sample instead of failing the whole batch.
type Client struct {
	baseURL string
	apiKey  string
	symbols []string
	book    *LiveBook
	client  *xhttp.Client
	cache   pkgcache.Service
	l       *applogger.Logger

	now func() time.Time
}

func NewClient(baseURL, apiKey string, symbols []string, timeout time.Duration, book *LiveBook, l *applogger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		symbols: symbols,
		book:    book,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		l:       l,
		now:     time.Now,
	}
}

// SetCache injects a candle response cache so manual recalculations inside
// the TTL do not hit the provider again.
func (c *Client) SetCache(cache pkgcache.Service) { c.cache = cache }

// candle API response, finnhub style: s is "ok" or "no_data"
type candleResponse struct {
	Status  string    `json:"s"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
	Times   []int64   `json:"t"`
}

// FetchSamples fetches all configured symbols concurrently. The returned
// slice always has one entry per symbol; fetch failures leave the indicator
// fields nil so scoring marks the component unavailable.
func (c *Client) FetchSamples(ctx context.Context) ([]models.InstrumentSample, error) {
	out := make([]models.InstrumentSample, len(c.symbols))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, symbol := range c.symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sample, err := c.fetchSample(ctx, symbol)
			if err != nil {
				if c.l != nil {
					c.l.Warn("candle fetch failed",
						applogger.String("symbol", symbol),
						applogger.Error(err),
					)
				}
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				sample = models.InstrumentSample{Symbol: symbol}
			}
			out[i] = sample
		}(i, symbol)
	}
	wg.Wait()

	return out, firstErr
}

func (c *Client) fetchSample(ctx context.Context, symbol string) (models.InstrumentSample, error) {
	to := c.now()
	from := to.AddDate(0, 0, -lookbackDays)

	resp, err := c.fetchCandles(ctx, symbol, from, to)
	if err != nil {
		return models.InstrumentSample{}, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if resp.Status != "ok" || len(resp.Closes) == 0 {
		return models.InstrumentSample{}, fmt.Errorf("no candle data for %s", symbol)
	}

	closes := append([]float64(nil), resp.Closes...)
	volumes := append([]float64(nil), resp.Volumes...)

	// Patch in the live price when the stream has one: same-day quotes
	// replace the last close, a quote from a newer day extends the series
	// with the previous day's volume as an estimate.
	if c.book != nil && len(resp.Times) == len(resp.Closes) {
		if q, ok := c.book.Fresh(symbol); ok {
			lastDay := time.Unix(resp.Times[len(resp.Times)-1], 0).UTC().Truncate(24 * time.Hour)
			quoteDay := q.Timestamp.UTC().Truncate(24 * time.Hour)
			if quoteDay.After(lastDay) {
				closes = append(closes, q.Price)
				if len(volumes) > 0 {
					volumes = append(volumes, volumes[len(volumes)-1])
				}
			} else {
				closes[len(closes)-1] = q.Price
			}
		}
	}

	return buildSample(symbol, closes, volumes), nil
}

func (c *Client) fetchCandles(ctx context.Context, symbol string, from, to time.Time) (candleResponse, error) {
	key := pkgcache.GenerateKey("candles", symbol)

	var resp candleResponse
	if c.cache != nil {
		var raw string
		if err := c.cache.Get(ctx, key, &raw); err == nil {
			if err := json.Unmarshal([]byte(raw), &resp); err == nil {
				return resp, nil
			}
		}
	}

	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(to.Unix(), 10)},
			"token":      {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return candleResponse{}, err
	}

	if c.cache != nil && resp.Status == "ok" {
		if b, merr := json.Marshal(resp); merr == nil {
			if cerr := c.cache.Set(ctx, key, string(b), candleCacheTTL); cerr != nil && c.l != nil {
				c.l.Warn("candle cache set failed",
					applogger.String("symbol", symbol),
					applogger.Error(cerr),
				)
			}
		}
	}
	return resp, nil
}

func buildSample(symbol string, closes, volumes []float64) models.InstrumentSample {
	sample := models.InstrumentSample{Symbol: symbol}
	n := len(closes)
	if n == 0 {
		return sample
	}

	sample.Price = models.Float(closes[n-1])

	if n >= maLongPeriod {
		ma := talib.Sma(closes, maLongPeriod)
		sample.MA30 = models.Float(ma[n-1])
	}
	if n >= maShortPeriod {
		ma := talib.Sma(closes, maShortPeriod)
		sample.MA5 = models.Float(ma[n-1])
	}
	if n > rsiPeriod {
		rsi := talib.Rsi(closes, rsiPeriod)
		sample.RSI = models.Float(rsi[n-1])
	}
	if len(volumes) == n && n >= volumePeriod {
		sample.Volume = models.Float(volumes[n-1])
		avg := talib.Sma(volumes, volumePeriod)
		sample.AvgVolume = models.Float(avg[n-1])
	}
	return sample
}

var _ dservice.SampleSource = (*Client)(nil)
