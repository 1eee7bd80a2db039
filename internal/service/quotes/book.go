package quotes

import (
	"context"
	"sync"
	"time"

	drepo "SkyIndex/internal/domain/repository"
	applogger "SkyIndex/pkg/logger"
)

const (
	DefaultQuoteMaxAge         = 15 * time.Minute
	defaultReconnectRetryDelay = 5 * time.Second
)

// LiveBook consumes the quote stream and keeps the latest price per symbol.
// The sample builder reads from it to patch stale candle closes with live
// prices. Quotes older than maxAge are treated as absent.
type LiveBook struct {
	stream     drepo.QuoteStream
	metrics    drepo.Metrics
	maxAge     time.Duration
	retryDelay time.Duration
	l          *applogger.Logger

	mu     sync.RWMutex
	latest map[string]*drepo.Quote

	now func() time.Time
}

func NewLiveBook(stream drepo.QuoteStream, metrics drepo.Metrics, maxAge time.Duration, l *applogger.Logger) *LiveBook {
	if maxAge <= 0 {
		maxAge = DefaultQuoteMaxAge
	}
	return &LiveBook{
		stream:     stream,
		metrics:    metrics,
		maxAge:     maxAge,
		retryDelay: defaultReconnectRetryDelay,
		l:          l,
		latest:     make(map[string]*drepo.Quote),
		now:        time.Now,
	}
}

// Start connects, subscribes and consumes in the background until ctx ends.
func (b *LiveBook) Start(ctx context.Context) error {
	if err := b.stream.Connect(ctx); err != nil {
		return err
	}
	if err := b.stream.Subscribe(ctx); err != nil {
		return err
	}
	qCh, errCh := b.stream.Read(ctx)
	go b.consume(ctx, qCh, errCh)
	return nil
}

func (b *LiveBook) consume(ctx context.Context, qCh <-chan *drepo.Quote, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			// An error or a closed channel both mean the read loop is gone.
			// Never select on the dead stream's channels again.
			if ok && err != nil {
				b.metrics.RecordError("quote_stream")
				if b.l != nil {
					b.l.Warn("quote stream error, reconnecting", applogger.Error(err))
				}
			}
			if !b.reconnect(ctx) {
				return
			}
			qCh, errCh = b.stream.Read(ctx)
		case q, ok := <-qCh:
			if !ok {
				if !b.reconnect(ctx) {
					return
				}
				qCh, errCh = b.stream.Read(ctx)
				continue
			}
			if q == nil {
				continue
			}
			b.mu.Lock()
			b.latest[q.Symbol] = q
			b.mu.Unlock()
		}
	}
}

// reconnect retries until the stream is back or ctx ends. Reports whether
// the stream is usable again.
func (b *LiveBook) reconnect(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		err := b.stream.Reconnect(ctx)
		if err == nil {
			return true
		}
		b.metrics.RecordError("quote_stream_reconnect")
		if b.l != nil {
			b.l.Warn("quote stream reconnect failed, retrying", applogger.Error(err))
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(b.retryDelay):
		}
	}
}

// Fresh returns the latest quote for symbol if it is recent enough.
func (b *LiveBook) Fresh(symbol string) (*drepo.Quote, bool) {
	b.mu.RLock()
	q, ok := b.latest[symbol]
	b.mu.RUnlock()
	if !ok || b.now().Sub(q.Timestamp) > b.maxAge {
		return nil, false
	}
	return q, true
}

// IsConnected reports the underlying stream state.
func (b *LiveBook) IsConnected() bool { return b.stream.IsConnected() }

// Stop closes the stream.
func (b *LiveBook) Stop() error { return b.stream.Close() }
