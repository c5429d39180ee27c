package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 4, 1e-9) {
		t.Fatalf("SMA = %v, want 4", got)
	}

	if _, err := SMA([]float64{1, 2}, 3); err != ErrNotEnoughData {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestEMASeriesConverges(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = 10
	}
	out := EMASeries(values, 9)
	if len(out) != len(values) {
		t.Fatalf("len = %d, want %d", len(out), len(values))
	}
	if !almostEqual(out[len(out)-1], 10, 1e-9) {
		t.Fatalf("EMA of constant series = %v, want 10", out[len(out)-1])
	}
}

func TestRSIAllGainsIs100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	rsi, err := RSISeries(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(rsi[len(rsi)-1], 100, 1e-9) {
		t.Fatalf("RSI of monotone rise = %v, want 100", rsi[len(rsi)-1])
	}
}

func TestRSIAllLossesNearZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 - i)
	}
	rsi, err := RSISeries(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi[len(rsi)-1] > 1e-6 {
		t.Fatalf("RSI of monotone fall = %v, want ~0", rsi[len(rsi)-1])
	}
}

func TestRSIBounds(t *testing.T) {
	closes := []float64{44, 44.5, 43.9, 44.2, 44.8, 44.1, 45, 45.3, 44.9, 45.5,
		45.1, 45.8, 46, 45.7, 46.2, 46.5, 46.1, 46.8, 47, 46.6}
	rsi, err := RSISeries(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range rsi {
		if v < 0 || v > 100 {
			t.Fatalf("rsi[%d] = %v out of [0,100]", i, v)
		}
	}
}

func TestMACDHistogramIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/4)
	}
	res, err := MACD(closes, 3, 10, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range closes {
		if !almostEqual(res.Histogram[i], res.Line[i]-res.Signal[i], 1e-9) {
			t.Fatalf("histogram[%d] mismatch", i)
		}
	}
}

func TestMACDTooShort(t *testing.T) {
	if _, err := MACD(make([]float64, 10), 3, 10, 16); err != ErrNotEnoughData {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}

func TestVolumeRatio(t *testing.T) {
	volumes := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 30}
	got, err := VolumeRatio(volumes, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(got, 3, 1e-9) {
		t.Fatalf("VolumeRatio = %v, want 3", got)
	}
}

func TestPeaks(t *testing.T) {
	closes := []float64{100, 105, 100, 101, 101.5, 101, 100, 120, 100}
	peaks := Peaks(closes, 0.02)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2: %+v", len(peaks), peaks)
	}
	if peaks[0].Index != 1 || peaks[1].Index != 7 {
		t.Fatalf("peak indices = %d,%d, want 1,7", peaks[0].Index, peaks[1].Index)
	}
	// 101.5 over 101 is under the 2% prominence floor.
	for _, p := range peaks {
		if p.Index == 4 {
			t.Fatalf("low-prominence bump reported as peak")
		}
	}
}

func TestPeaksRequireMarginOverBothNeighbors(t *testing.T) {
	// 103 clears 100 by 3% but 102.9 by only ~0.1% of its own value, so
	// the smaller margin keeps it under the 2% floor.
	if peaks := Peaks([]float64{100, 103, 102.9}, 0.02); len(peaks) != 0 {
		t.Fatalf("one-sided maximum reported as peak: %+v", peaks)
	}

	peaks := Peaks([]float64{100, 103, 100.5}, 0.02)
	if len(peaks) != 1 {
		t.Fatalf("got %d peaks, want 1: %+v", len(peaks), peaks)
	}
	want := (103 - 100.5) / 103.0
	if !almostEqual(peaks[0].Height, want, 1e-9) {
		t.Fatalf("Height = %v, want %v", peaks[0].Height, want)
	}
}

func TestRising(t *testing.T) {
	if !Rising([]float64{1, 2, 3}, 1) {
		t.Fatalf("expected rising")
	}
	if Rising([]float64{3, 2, 1}, 1) {
		t.Fatalf("expected not rising")
	}
	if Rising([]float64{1}, 2) {
		t.Fatalf("short series cannot be rising")
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{2, 2, 2}); !almostEqual(got, 0, 1e-12) {
		t.Fatalf("StdDev of constants = %v, want 0", got)
	}
	if got := StdDev([]float64{1, 3}); !almostEqual(got, 1, 1e-12) {
		t.Fatalf("StdDev = %v, want 1", got)
	}
}
