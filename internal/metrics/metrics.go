// Package metrics exposes per-round market aggregates as Prometheus
// metrics and writes them to a node-exporter textfile.
package metrics

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/circulation/internal/engine"
)

// Collector holds the round gauges on a private registry.
type Collector struct {
	registry *prometheus.Registry

	round             prometheus.Gauge
	loanableFunds     prometheus.Gauge
	borrowerDemand    prometheus.Gauge
	repaymentDemand   prometheus.Gauge
	repaymentSupply   prometheus.Gauge
	ratios            *prometheus.GaugeVec
	price             prometheus.Gauge
	totalSavings      prometheus.Gauge
	totalDebt         prometheus.Gauge
	starving          prometheus.Gauge
	goodsPrice        *prometheus.GaugeVec
	goodsVolume       *prometheus.GaugeVec
	roundsTotal       prometheus.Counter
	degenerateMarkets *prometheus.CounterVec
	savingsDist       prometheus.Histogram

	mu     sync.Mutex
	logger *slog.Logger
}

// NewCollector creates a collector with its own registry.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	f := promauto.With(registry)

	return &Collector{
		registry: registry,
		round: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_round",
			Help: "Last completed round",
		}),
		loanableFunds: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_loanable_funds",
			Help: "Savings offered to borrowers in the last round",
		}),
		borrowerDemand: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_borrower_demand",
			Help: "Credit requested by borrowers in the last round",
		}),
		repaymentDemand: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_repayment_demand",
			Help: "Savings held by lenders at the start of the last round",
		}),
		repaymentSupply: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_repayment_supply",
			Help: "Repayments offered by debtors in the last round",
		}),
		ratios: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circsim_clearing_ratio",
			Help: "Capital market rationing ratios",
		}, []string{"ratio"}),
		price: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_price",
			Help: "Aggregate price level",
		}),
		totalSavings: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_total_savings",
			Help: "Savings held across all agents",
		}),
		totalDebt: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_total_debt",
			Help: "Debt owed across all agents",
		}),
		starving: f.NewGauge(prometheus.GaugeOpts{
			Name: "circsim_starving_agents",
			Help: "Agents with an unmet daily need in the last round",
		}),
		goodsPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circsim_goods_price",
			Help: "Reference price per good",
		}, []string{"good"}),
		goodsVolume: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circsim_goods_volume",
			Help: "Quantity traded per good",
		}, []string{"good"}),
		roundsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "circsim_rounds_total",
			Help: "Rounds completed",
		}),
		degenerateMarkets: f.NewCounterVec(prometheus.CounterOpts{
			Name: "circsim_degenerate_markets_total",
			Help: "Rounds in which a market cleared with a zero denominator",
		}, []string{"market"}),
		savingsDist: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "circsim_agent_savings",
			Help:    "Distribution of agent savings after each round",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		}),
		logger: logger,
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe records one round report.
func (c *Collector) Observe(r *engine.RoundReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.round.Set(float64(r.Round))
	c.loanableFunds.Set(r.Capital.LoanableFunds)
	c.borrowerDemand.Set(r.Capital.BorrowerDemand)
	c.repaymentDemand.Set(r.Capital.RepaymentDemand)
	c.repaymentSupply.Set(r.Capital.RepaymentSupply)
	c.ratios.WithLabelValues("borrowed_vs_desired").Set(r.Capital.BorrowedVsDesired)
	c.ratios.WithLabelValues("savings_vs_desired").Set(r.Capital.SavingsVsDesired)
	c.ratios.WithLabelValues("repayment_vs_demand").Set(r.Capital.RepaymentVsDemand)
	c.price.Set(r.Price.Price)
	c.totalSavings.Set(r.Stats.TotalSavings)
	c.totalDebt.Set(r.Stats.TotalDebt)
	c.starving.Set(float64(r.Stats.Starving))

	for _, e := range r.Goods {
		c.goodsPrice.WithLabelValues(e.Good.String()).Set(e.Price)
		c.goodsVolume.WithLabelValues(e.Good.String()).Set(e.Volume)
	}
	for _, name := range r.Capital.Degenerate.Names() {
		c.degenerateMarkets.WithLabelValues(name).Inc()
	}
	for _, a := range r.Agents {
		c.savingsDist.Observe(a.Savings)
	}
	c.roundsTotal.Inc()
}

// WriteTextfile writes the current registry contents in the text
// exposition format, replacing path atomically.
func (c *Collector) WriteTextfile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	c.logger.Info("metrics written", "path", path)
	return nil
}
