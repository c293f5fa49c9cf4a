// Package ta computes technical indicators over a chronologically ordered
// close-price series (oldest first). Every function reports insufficient
// data as NaN; use Valid to test before using a result. Callers holding
// newest-first data must reverse it once before calling in here.
package ta

import "math"

// Valid reports whether an indicator result is usable.
func Valid(v float64) bool { return !math.IsNaN(v) }

// Absent is the "not computable" sentinel.
func Absent() float64 { return math.NaN() }

// RSI computes the Wilder-smoothed Relative Strength Index over period.
// Requires at least period+1 closes. A pure uptrend (avgLoss == 0) is
// defined as 100 rather than propagating a division by zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}

	// Seed: simple mean of the first `period` up/down moves.
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for every bar after the seed window.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
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
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// SMA is the mean of the last n closes.
func SMA(closes []float64, n int) float64 {
	if n <= 0 || len(closes) < n {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(n)
}

// PercentChange is the percent move from `days` bars ago to the most recent
// close.
func PercentChange(closes []float64, days int) float64 {
	if days <= 0 || len(closes) < days+1 {
		return math.NaN()
	}
	latest := closes[len(closes)-1]
	then := closes[len(closes)-1-days]
	if then == 0 {
		return math.NaN()
	}
	return (latest - then) / then * 100.0
}

// VolumeChange compares the mean volume of the most recent 10 bars against
// the preceding 10, as a percent difference.
func VolumeChange(volumes []float64) float64 {
	if len(volumes) < 20 {
		return math.NaN()
	}
	recent := mean(volumes[len(volumes)-10:])
	previous := mean(volumes[len(volumes)-20 : len(volumes)-10])
	if previous == 0 {
		return math.NaN()
	}
	return (recent - previous) / previous * 100.0
}

// DistanceFromHigh is how far below the 52-week high the current price sits,
// in percent.
func DistanceFromHigh(current, high float64) float64 {
	if high == 0 {
		return math.NaN()
	}
	return (high - current) / high * 100.0
}

// DistanceFromLow is how far above the 52-week low the current price sits,
// in percent.
func DistanceFromLow(current, low float64) float64 {
	if low == 0 {
		return math.NaN()
	}
	return (current - low) / low * 100.0
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
