package series

import (
	"math"
	"testing"
)

func TestPctChange(t *testing.T) {
	rets := PctChange([]float64{100, 110, 99})
	if !math.IsNaN(rets[0]) {
		t.Fatalf("expected NaN at warm-up, got %v", rets[0])
	}
	if math.Abs(rets[1]-0.10) > 1e-12 {
		t.Fatalf("expected 0.10, got %v", rets[1])
	}
	if math.Abs(rets[2]-(-0.10)) > 1e-12 {
		t.Fatalf("expected -0.10, got %v", rets[2])
	}
}

func TestStdMatchesSampleFormula(t *testing.T) {
	// values 2,4,4,4,5,5,7,9 have sample std sqrt(32/7)
	std := Std([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(std-math.Sqrt(32.0/7.0)) > 1e-12 {
		t.Fatalf("unexpected std %v", std)
	}
}

func TestRollingVolWarmup(t *testing.T) {
	rets := []float64{math.NaN(), 0.01, -0.01, 0.02, 0.00}
	vol := RollingVol(rets, 3, true)
	if !math.IsNaN(vol[1]) {
		t.Fatalf("expected NaN before window filled")
	}
	if math.IsNaN(vol[4]) {
		t.Fatalf("expected defined vol at end")
	}
	if vol[4] <= 0 {
		t.Fatalf("expected positive annualized vol, got %v", vol[4])
	}
}

func TestEWMAConverges(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 5
	}
	smoothed := EWMA(values, 10)
	if math.Abs(smoothed[len(smoothed)-1]-5) > 1e-9 {
		t.Fatalf("EWMA of constant series should converge to it, got %v", smoothed[len(smoothed)-1])
	}
}

func TestSharpeRatioZeroVol(t *testing.T) {
	if s := SharpeRatio([]float64{0.001, 0.001, 0.001}, 0); s != 0 {
		// constant returns have zero std
		t.Fatalf("expected zero sharpe on zero-vol series, got %v", s)
	}
}

func TestClip(t *testing.T) {
	if Clip(25, -20, 20) != 20 || Clip(-25, -20, 20) != -20 || Clip(5, -20, 20) != 5 {
		t.Fatalf("clip misbehaved")
	}
}
