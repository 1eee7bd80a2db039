package forecast

import (
	"fmt"
	"math"

	"SkyIndex/internal/domain/models"
)

const (
	minSeriesLen    = 8
	defaultMaxOrder = 10
)

// ARForecaster fits an autoregressive model over the recent index series by
// ordinary least squares, picking the lag order with the lowest AIC. Series
// shorter than 8 points fall back to a naive last-value forecast.
type ARForecaster struct {
	maxOrder    int
	ridgeLambda float64
}

func NewARForecaster() *ARForecaster {
	return &ARForecaster{maxOrder: defaultMaxOrder}
}

// NewRidgeForecaster adds L2 regularization to the lag coefficients, useful
// when the series is short enough for X'X to be near singular.
func NewRidgeForecaster(lambda float64) *ARForecaster {
	return &ARForecaster{maxOrder: defaultMaxOrder, ridgeLambda: lambda}
}

// Predict returns the first-step prediction with an approximate 95% interval.
// Multi-step forecasts feed each prediction back as the next lag input.
func (f *ARForecaster) Predict(history []float64, steps int) models.Forecast {
	if steps < 1 {
		steps = 1
	}
	model := fitAR(history, f.maxOrder, f.ridgeLambda)
	if model == nil {
		out := models.Forecast{Model: "fallback-naive"}
		if len(history) > 0 {
			out.Prediction = history[len(history)-1]
		}
		return out
	}

	preds := model.forecast(history, steps)
	pred := preds[0]
	ci := 1.96 * model.sigma

	lower := math.Max(0, roundTo(pred-ci, 2))
	upper := math.Min(100, roundTo(pred+ci, 2))
	rmse := roundTo(model.rmse, 4)
	r2 := roundTo(model.r2, 4)

	return models.Forecast{
		Model:      fmt.Sprintf("AR(%d)", model.order),
		Prediction: roundTo(pred, 2),
		Lower:      &lower,
		Upper:      &upper,
		RMSE:       &rmse,
		R2:         &r2,
		Order:      model.order,
	}
}

type arModel struct {
	order     int
	coef      []float64 // most recent lag first
	intercept float64
	sigma     float64
	rmse      float64
	r2        float64
}

// forecast rolls the model forward, clamping each step to the index domain
// and feeding it back as the next observation.
func (m *arModel) forecast(history []float64, steps int) []float64 {
	vals := append([]float64(nil), history...)
	out := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		if len(vals) < m.order {
			last := vals[len(vals)-1]
			out = append(out, last)
			vals = append(vals, last)
			continue
		}
		yhat := m.intercept
		for j := 0; j < m.order; j++ {
			yhat += m.coef[j] * vals[len(vals)-1-j]
		}
		yhat = math.Max(0, math.Min(100, yhat))
		out = append(out, yhat)
		vals = append(vals, yhat)
	}
	return out
}

// fitAR tries every order p in [2, maxOrder] and keeps the fit with the
// lowest AIC. Returns nil when the series is too short or no system solves.
func fitAR(series []float64, maxOrder int, ridgeLambda float64) *arModel {
	n := len(series)
	if n < minSeriesLen {
		return nil
	}

	bestAIC := math.Inf(1)
	var best *arModel

	top := maxOrder
	if n-2 < top {
		top = n - 2
	}
	for p := 2; p <= top; p++ {
		rows := n - p

		// Row i holds the p lags preceding series[p+i], most recent first.
		x := make([][]float64, rows)
		target := make([]float64, rows)
		for i := 0; i < rows; i++ {
			row := make([]float64, p)
			for j := 0; j < p; j++ {
				row[j] = series[i+p-1-j]
			}
			x[i] = row
			target[i] = series[p+i]
		}

		xtx := make([][]float64, p)
		xty := make([]float64, p)
		for a := 0; a < p; a++ {
			xtx[a] = make([]float64, p)
			for b := 0; b < p; b++ {
				var s float64
				for i := 0; i < rows; i++ {
					s += x[i][a] * x[i][b]
				}
				xtx[a][b] = s
			}
			var s float64
			for i := 0; i < rows; i++ {
				s += x[i][a] * target[i]
			}
			xty[a] = s
		}
		if ridgeLambda > 0 {
			for a := 0; a < p; a++ {
				xtx[a][a] += ridgeLambda
			}
		}

		coef, ok := solve(xtx, xty)
		if !ok {
			continue
		}

		targetMean := mean(target)
		intercept := targetMean
		for j := 0; j < p; j++ {
			intercept -= colMean(x, j) * coef[j]
		}

		var rss float64
		for i := 0; i < rows; i++ {
			pred := intercept
			for j := 0; j < p; j++ {
				pred += x[i][j] * coef[j]
			}
			resid := target[i] - pred
			rss += resid * resid
		}
		sigma := math.Sqrt(rss / float64(rows))

		k := float64(p + 1)
		aic := 2*k + float64(rows)*math.Log(rss/float64(rows)+1e-12)
		if aic < bestAIC {
			ssTot := 0.0
			for i := 0; i < rows; i++ {
				d := target[i] - targetMean
				ssTot += d * d
			}
			if ssTot == 0 {
				ssTot = 1e-9
			}
			bestAIC = aic
			best = &arModel{
				order:     p,
				coef:      coef,
				intercept: intercept,
				sigma:     sigma,
				rmse:      sigma,
				r2:        1 - rss/ssTot,
			}
		}
	}
	return best
}

// solve runs Gaussian elimination with partial pivoting on a copy of the
// normal equations. Orders here never exceed 10, so no fancier factorization
// is warranted.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	m := make([][]float64, n)
	for i := range a {
		m[i] = append(append([]float64(nil), a[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := m[i][n]
		for j := i + 1; j < n; j++ {
			s -= m[i][j] * out[j]
		}
		out[i] = s / m[i][i]
	}
	return out, true
}

func mean(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s / float64(len(v))
}

func colMean(x [][]float64, j int) float64 {
	var s float64
	for i := range x {
		s += x[i][j]
	}
	return s / float64(len(x))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
