package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"systrade-go/internal/backtest"
	"systrade-go/internal/config"
	"systrade-go/internal/execution"
	"systrade-go/internal/journal"
	"systrade-go/internal/marketdata"
	"systrade-go/internal/metrics"
	"systrade-go/internal/risk"
	"systrade-go/internal/sizing"
	"systrade-go/internal/strategy"
	"systrade-go/internal/util"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config (defaults built in when empty)")
		dataDir     = flag.String("data", "data", "directory of <SYMBOL>.csv price files")
		symbolsArg  = flag.String("symbols", "", "comma-separated symbols, e.g. AAPL,MSFT")
		mode        = flag.String("strategy", "", "rule override: ewmac, mac, multi_ewmac, donchian, rsi, bollinger")
		vectorized  = flag.Bool("vector", false, "run the frictionless vectorized engine instead of the order-level one")
		metricsAddr = flag.String("metrics-addr", "", "listen address for /metrics (overrides config)")
	)
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal().Err(err).Msg("apply env overrides")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	if *metricsAddr != "" {
		cfg.App.MetricsAddr = *metricsAddr
	}
	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	symbols := splitSymbols(*symbolsArg)
	if len(symbols) == 0 {
		log.Fatal().Msg("no symbols given, use -symbols AAPL,MSFT")
	}

	histories := make(map[string]marketdata.History, len(symbols))
	for _, symbol := range symbols {
		path := filepath.Join(*dataDir, symbol+".csv")
		h, err := marketdata.LoadCSV(path, symbol)
		if err != nil {
			log.Fatal().Err(err).Str("symbol", symbol).Msg("load prices")
		}
		log.Info().Str("symbol", symbol).Int("bars", h.Len()).Msg("prices loaded")
		histories[symbol] = h
	}

	ruleMode := cfg.Strategy.Mode
	if *mode != "" {
		ruleMode = *mode
	}
	rule := strategy.Build(ruleMode, strategy.Params{
		FastSpan:      cfg.Strategy.Params.FastSpan,
		SlowSpan:      cfg.Strategy.Params.SlowSpan,
		ChannelPeriod: cfg.Strategy.Params.ChannelPeriod,
		RSIPeriod:     cfg.Strategy.Params.RSIPeriod,
		RSIOversold:   cfg.Strategy.Params.RSIOversold,
		RSIOverbought: cfg.Strategy.Params.RSIOverbought,
		BollPeriod:    cfg.Strategy.Params.BollPeriod,
		BollNumStd:    cfg.Strategy.Params.BollNumStd,
	})
	log.Info().Str("rule", rule.Name()).Strs("symbols", symbols).Msg("backtest starting")

	sizer := sizing.NewSizer(cfg.Account.InitialCapital, cfg.Sizing.VolatilityTarget, cfg.Sizing.MaxPositionFraction)

	var result backtest.Result
	if *vectorized {
		result, err = runVector(cfg, rule, histories, sizer, log)
	} else {
		result, err = runOrderLevel(cfg, rule, histories, sizer, log)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	fmt.Println(result.Summary())
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

func runOrderLevel(cfg *config.Config, rule strategy.Strategy, histories map[string]marketdata.History, sizer sizing.Sizer, log zerolog.Logger) (backtest.Result, error) {
	broker := execution.NewBroker(execution.BrokerConfig{
		InitialCapital: cfg.Account.InitialCapital,
		CommissionRate: cfg.Costs.CommissionRate,
		SlippageRate:   cfg.Costs.SlippageRate,
		MinCommission:  cfg.Costs.MinCommission,
		MarketImpact:   cfg.Costs.MarketImpact,
		Seed:           cfg.Execution.Seed,
	}, log)

	if cfg.Execution.TradesPath != "" {
		recorder, err := journal.NewJSONLRecorder(cfg.Execution.TradesPath)
		if err != nil {
			return backtest.Result{}, fmt.Errorf("open trade journal: %w", err)
		}
		defer recorder.Close()
		broker.SetRecorder(recorder)
		log.Info().Str("path", cfg.Execution.TradesPath).Msg("journaling trades")
	}

	engine := execution.NewEngine(broker, sizer, execution.EngineConfig{
		RebalanceThreshold: cfg.Execution.RebalanceThreshold,
		VolWindow:          cfg.Sizing.VolWindow,
		RiskFreeRate:       cfg.Account.RiskFreeRate,
		Limits: risk.Limits{
			MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade,
			MaxDrawdown:         cfg.Risk.MaxDrawdown,
		},
	}, log)

	result, err := engine.Run(rule, histories)
	if err != nil {
		return backtest.Result{}, err
	}

	stats := broker.Stats()
	log.Info().
		Int("trades", stats.TotalTrades).
		Float64("commission", stats.TotalCommission).
		Float64("slippage", stats.TotalSlippage).
		Float64("cost_fraction", stats.CostFraction).
		Msg("trade costs")
	return result, nil
}

func runVector(cfg *config.Config, rule strategy.Strategy, histories map[string]marketdata.History, sizer sizing.Sizer, log zerolog.Logger) (backtest.Result, error) {
	engine := backtest.NewVectorEngine(backtest.VectorConfig{
		InitialCapital: cfg.Account.InitialCapital,
		CommissionRate: cfg.Costs.CommissionRate,
		SlippageRate:   cfg.Costs.SlippageRate,
		RiskFreeRate:   cfg.Account.RiskFreeRate,
		VolWindow:      cfg.Sizing.VolWindow,
	}, log)

	list := make([]marketdata.History, 0, len(histories))
	for _, h := range histories {
		list = append(list, h)
	}
	if len(list) == 1 {
		return engine.Run(rule, list[0], sizer)
	}
	return engine.RunPortfolio(rule, list, sizer)
}

func splitSymbols(arg string) []string {
	var out []string
	for _, s := range strings.Split(arg, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
