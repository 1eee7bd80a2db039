package sentiment

import (
	"context"
	"strings"
	"time"

	xhttp "SkyIndex/pkg/http"
	applogger "SkyIndex/pkg/logger"
)

const maxModelInputLen = 450

// TransformerClient asks an external model service to classify one headline.
// Any transport or decode failure is treated as "model unavailable" so the
// analyzer degrades to keyword-only scoring instead of failing the cycle.
type TransformerClient struct {
	baseURL string
	client  *xhttp.Client
	l       *applogger.Logger
}

func NewTransformerClient(baseURL string, timeout time.Duration, l *applogger.Logger) *TransformerClient {
	return &TransformerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		l:       l,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score maps the model's label probability onto the index scale: negative
// labels land in [0,50], everything else in [50,100].
func (c *TransformerClient) Score(ctx context.Context, text string) (float64, bool) {
	if c.baseURL == "" || strings.TrimSpace(text) == "" {
		return 0, false
	}
	if len(text) > maxModelInputLen {
		text = text[:maxModelInputLen]
	}

	var resp classifyResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/classify",
		Body:   classifyRequest{Text: text},
	}, &resp)
	if err != nil {
		if c.l != nil {
			c.l.Debug("transformer scoring unavailable", applogger.Error(err))
		}
		return 0, false
	}

	if strings.HasPrefix(strings.ToUpper(resp.Label), "NEG") {
		return (1 - resp.Score) * 100 * 0.5, true
	}
	return 50 + resp.Score*50, true
}
