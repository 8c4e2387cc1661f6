// Package analysis computes the price-series statistics the reporting
// commands present: moving averages, RSI, drawdown, and risk-adjusted return
// ratios.
package analysis

import (
	"fmt"
	"math"
)

// TradingDaysPerYear is the annualization factor for daily return series.
const TradingDaysPerYear = 252

// SMA returns the simple moving average of the trailing period, computed at
// the end of the series.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("sma: period must be positive")
	}
	if len(values) < period {
		return 0, fmt.Errorf("sma: need %d values, have %d", period, len(values))
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// RSI returns the relative strength index at the end of the series using
// Wilder's smoothing.
func RSI(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi: period must be positive")
	}
	if len(values) <= period {
		return 0, fmt.Errorf("rsi: need more than %d values, have %d", period, len(values))
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// Returns converts a close series into simple daily returns.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction
// (0.25 means a 25% drawdown).
func MaxDrawdown(closes []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, c := range closes {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := (peak - c) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Sharpe returns the annualized Sharpe ratio of a daily return series.
// riskFree is the annual risk-free rate.
func Sharpe(returns []float64, riskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	dailyRF := riskFree / TradingDaysPerYear
	mean, std := meanStd(returns)
	if std == 0 {
		return 0
	}
	return (mean - dailyRF) / std * math.Sqrt(TradingDaysPerYear)
}

// Sortino returns the annualized Sortino ratio of a daily return series,
// penalizing downside deviation only.
func Sortino(returns []float64, riskFree float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	dailyRF := riskFree / TradingDaysPerYear
	mean, _ := meanStd(returns)

	var downside float64
	var n int
	for _, r := range returns {
		if excess := r - dailyRF; excess < 0 {
			downside += excess * excess
		}
		n++
	}
	if n == 0 {
		return 0
	}
	downsideDev := math.Sqrt(downside / float64(n))
	if downsideDev == 0 {
		return 0
	}
	return (mean - dailyRF) / downsideDev * math.Sqrt(TradingDaysPerYear)
}

// Correlation returns the Pearson correlation coefficient of two equal-length
// series.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("correlation: series lengths differ (%d vs %d)", len(a), len(b))
	}
	if len(a) < 2 {
		return 0, fmt.Errorf("correlation: need at least 2 points")
	}

	meanA, _ := meanStd(a)
	meanB, _ := meanStd(b)

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0, fmt.Errorf("correlation: zero variance series")
	}
	return cov / math.Sqrt(varA*varB), nil
}

func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return mean, math.Sqrt(variance)
}
