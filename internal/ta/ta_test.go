package ta

import (
	"testing"
)

func TestRSIMonotonicUp(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100.0 + float64(i)
	}
	rsi := RSI(closes, 14)
	if rsi != 100.0 {
		t.Errorf("expected RSI 100 for a pure uptrend, got %f", rsi)
	}
}

func TestRSIMonotonicDown(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200.0 - float64(i)
	}
	rsi := RSI(closes, 14)
	if rsi != 0.0 {
		t.Errorf("expected RSI 0 for a pure downtrend, got %f", rsi)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	closes := []float64{100, 101, 102}
	if rsi := RSI(closes, 14); Valid(rsi) {
		t.Errorf("expected absent RSI for 3 bars, got %f", rsi)
	}
	if rsi := RSI(nil, 14); Valid(rsi) {
		t.Errorf("expected absent RSI for empty series, got %f", rsi)
	}
}

func TestRSIMidrange(t *testing.T) {
	// Alternating gains and losses of equal size: gains and losses average
	// out, so RSI sits in the middle of the range. The Wilder smoothing
	// weights recent moves, so a finite series ending on a gain lands a
	// little above 50 rather than exactly on it.
	closes := make([]float64, 30)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100.0
		} else {
			closes[i] = 101.0
		}
	}
	rsi := RSI(closes, 14)
	if rsi < 45.0 || rsi > 55.0 {
		t.Errorf("expected midrange RSI for alternating series, got %f", rsi)
	}
}

func TestSMAConstantSeries(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 42.5
	}
	for _, n := range []int{20, 50, 200} {
		if sma := SMA(closes, n); sma != 42.5 {
			t.Errorf("SMA(%d) over constant series: expected 42.5, got %f", n, sma)
		}
	}
}

func TestSMAInsufficientData(t *testing.T) {
	closes := []float64{1, 2, 3}
	if sma := SMA(closes, 50); Valid(sma) {
		t.Errorf("expected absent SMA(50) for 3 bars, got %f", sma)
	}
}

func TestPercentChange(t *testing.T) {
	closes := []float64{100, 105, 110}
	got := PercentChange(closes, 2)
	if got != 10.0 {
		t.Errorf("expected exactly 10.0, got %f", got)
	}

	flat := []float64{100, 100, 100}
	if chg := PercentChange(flat, 2); chg != 0.0 {
		t.Errorf("expected 0 for unchanged price, got %f", chg)
	}

	if chg := PercentChange(closes, 10); Valid(chg) {
		t.Errorf("expected absent change for lookback past series start, got %f", chg)
	}
}

func TestVolumeChange(t *testing.T) {
	volumes := make([]float64, 20)
	for i := 0; i < 10; i++ {
		volumes[i] = 1000
	}
	for i := 10; i < 20; i++ {
		volumes[i] = 1500
	}
	got := VolumeChange(volumes)
	if got != 50.0 {
		t.Errorf("expected 50%% volume change, got %f", got)
	}

	if v := VolumeChange(volumes[:19]); Valid(v) {
		t.Errorf("expected absent volume change for 19 bars, got %f", v)
	}
}

func TestDistanceFromHighLow(t *testing.T) {
	if d := DistanceFromHigh(80, 100); d != 20.0 {
		t.Errorf("expected 20%% from high, got %f", d)
	}
	if d := DistanceFromLow(80, 50); d != 60.0 {
		t.Errorf("expected 60%% from low, got %f", d)
	}
	if d := DistanceFromHigh(80, 0); Valid(d) {
		t.Errorf("expected absent distance for zero high, got %f", d)
	}
	if d := DistanceFromLow(80, 0); Valid(d) {
		t.Errorf("expected absent distance for zero low, got %f", d)
	}
}
