// Package metrics exposes prometheus counters for simulated order flow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted to the simulated venue"},
		[]string{"symbol", "side"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fills_total", Help: "Orders filled by the simulated venue"},
		[]string{"symbol", "side"},
	)
	RejectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rejects_total", Help: "Orders rejected for insufficient cash"},
		[]string{"symbol"},
	)
	TradingCosts = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trading_costs_total", Help: "Cumulative commission plus slippage paid"},
	)
)

func init() {
	prometheus.MustRegister(OrdersTotal, FillsTotal, RejectsTotal, TradingCosts)
}

// Serve starts a /metrics endpoint on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
