package strategy

import "strings"

// Params expresses tunable knobs required by rule constructors.
type Params struct {
	FastSpan      int
	SlowSpan      int
	ChannelPeriod int
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64
	BollPeriod    int
	BollNumStd    float64
}

// Build returns a rule implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "ewmac":
		return NewEWMAC(params.FastSpan, params.SlowSpan)
	case "mac", "ma_crossover":
		return NewMACrossover(params.FastSpan, params.SlowSpan)
	case "multi_ewmac", "multi":
		return NewMultiEWMAC(nil)
	case "donchian", "breakout":
		return NewDonchianBreakout(params.ChannelPeriod)
	case "rsi", "rsi_meanrev":
		return NewRSIMeanReversion(params.RSIPeriod, params.RSIOversold, params.RSIOverbought)
	case "bollinger", "bbands":
		return NewBollingerBands(params.BollPeriod, params.BollNumStd)
	default:
		return NewEWMAC(params.FastSpan, params.SlowSpan)
	}
}
