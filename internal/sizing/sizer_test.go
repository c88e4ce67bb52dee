package sizing

import (
	"math"
	"testing"
)

func TestSizeCoreFormula(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 1.0)
	// (0.20/0.20) * (10/10) * 100000 / 100 = 1000 shares
	shares := sizer.Size(100, 0.20, 10)
	if math.Abs(shares-1000) > 1e-9 {
		t.Fatalf("expected 1000 shares, got %v", shares)
	}
}

func TestSizeSignFollowsForecast(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.5)
	for _, forecast := range []float64{-20, -5, 5, 20} {
		shares := sizer.Size(50, 0.25, forecast)
		if forecast > 0 && shares <= 0 {
			t.Fatalf("expected long exposure for forecast %v, got %v", forecast, shares)
		}
		if forecast < 0 && shares >= 0 {
			t.Fatalf("expected short exposure for forecast %v, got %v", forecast, shares)
		}
	}
	if shares := sizer.Size(50, 0.25, 0); shares != 0 {
		t.Fatalf("expected zero exposure for zero forecast, got %v", shares)
	}
}

func TestSizeCapsExposure(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.10)
	// uncapped would be 1000 shares; cap is 100000*0.10/100 = 100
	shares := sizer.Size(100, 0.20, 10)
	if math.Abs(shares-100) > 1e-9 {
		t.Fatalf("expected capped 100 shares, got %v", shares)
	}
	if notional := math.Abs(shares) * 100; notional > 100000*0.10+1e-9 {
		t.Fatalf("cap property violated: notional %v", notional)
	}

	short := sizer.Size(100, 0.20, -20)
	if math.Abs(short-(-100)) > 1e-9 {
		t.Fatalf("expected capped short of -100, got %v", short)
	}
}

func TestSizeDegenerateInputs(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.10)
	cases := []struct {
		price, vol, forecast float64
	}{
		{0, 0.20, 10},
		{-5, 0.20, 10},
		{100, 0, 10},
		{100, -0.1, 10},
		{100, math.NaN(), 10},
		{100, 0.20, math.NaN()},
	}
	for _, c := range cases {
		if shares := sizer.Size(c.price, c.vol, c.forecast); shares != 0 {
			t.Fatalf("expected zero exposure for (%v, %v, %v), got %v", c.price, c.vol, c.forecast, shares)
		}
	}
}

func TestSeriesPositionsWarmupIsFlat(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.50)
	closes := make([]float64, 40)
	forecasts := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5) // some wiggle so vol is nonzero
		forecasts[i] = 10
	}
	positions := sizer.SeriesPositions(closes, forecasts, 25)
	for i := 0; i < 25; i++ {
		if positions[i] != 0 {
			t.Fatalf("expected zero position during warm-up at %d, got %v", i, positions[i])
		}
	}
	if positions[39] == 0 {
		t.Fatalf("expected nonzero position after warm-up")
	}
}

func TestFixedFractional(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.10)
	if shares := sizer.FixedFractional(50, 0.02); math.Abs(shares-40) > 1e-9 {
		t.Fatalf("expected 40 shares, got %v", shares)
	}
	if shares := sizer.FixedFractional(0, 0.02); shares != 0 {
		t.Fatalf("expected zero for zero price, got %v", shares)
	}
}

func TestPortfolioLeverage(t *testing.T) {
	sizer := NewSizer(100000, 0.20, 0.10)
	lev := sizer.PortfolioLeverage(
		map[string]float64{"AAPL": 100, "MSFT": -200},
		map[string]float64{"AAPL": 150, "MSFT": 300},
	)
	// (100*150 + 200*300) / 100000 = 0.75
	if math.Abs(lev-0.75) > 1e-9 {
		t.Fatalf("expected leverage 0.75, got %v", lev)
	}
}
