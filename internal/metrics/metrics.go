// Package metrics exposes ledger activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/Mohsinsiddi/qbx/internal/chain"
	"github.com/Mohsinsiddi/qbx/internal/token"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "qbx"

// Recorder turns events and receipts into metrics.
type Recorder struct {
	events       *prometheus.CounterVec
	transactions *prometheus.CounterVec
	burned       prometheus.Counter
	paused       prometheus.Gauge
	height       prometheus.Gauge
}

// NewRecorder creates the metrics and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Ledger events by name",
				Name:      "events_total",
				Namespace: namespace,
			},
			[]string{"event"},
		),
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Help:      "Included transactions by method and status",
				Name:      "transactions_total",
				Namespace: namespace,
			},
			[]string{"method", "status"},
		),
		burned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Help:      "Burned amount in base units",
				Name:      "burned_base_units_total",
				Namespace: namespace,
			},
		),
		paused: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "1 while the ledger is paused",
				Name:      "paused",
				Namespace: namespace,
			},
		),
		height: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Help:      "Latest block number",
				Name:      "block_height",
				Namespace: namespace,
			},
		),
	}
	for _, c := range []prometheus.Collector{r.events, r.transactions, r.burned, r.paused, r.height} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Handle records one ledger event. It has the events.Handler signature.
func (r *Recorder) Handle(ev token.Event) {
	r.events.WithLabelValues(ev.Name).Inc()
	switch ev.Name {
	case token.EventBurn:
		if v, ok := ev.Args["value"].(*uint256.Int); ok {
			r.burned.Add(v.Float64())
		}
	case token.EventPause:
		r.paused.Set(1)
	case token.EventUnpause:
		r.paused.Set(0)
	}
}

// ObserveReceipt counts an included transaction and moves the height gauge.
func (r *Recorder) ObserveReceipt(rc *chain.Receipt) {
	status := "success"
	if !rc.Succeeded() {
		status = rc.Error
	}
	r.transactions.WithLabelValues(rc.Method, status).Inc()
	r.height.Set(float64(rc.BlockNumber))
}

// SetPaused seeds the paused gauge from the current ledger state.
func (r *Recorder) SetPaused(p bool) {
	if p {
		r.paused.Set(1)
		return
	}
	r.paused.Set(0)
}

// Service serves a gatherer over HTTP at /metrics.
type Service struct {
	*http.Server
	log *zap.Logger
}

// NewService creates a metrics service listening on addr.
func NewService(addr string, g prometheus.Gatherer, log *zap.Logger) *Service {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Service{
		Server: &http.Server{Addr: addr, Handler: mux},
		log:    log,
	}
}

// Start runs the HTTP server until ShutDown.
func (s *Service) Start() {
	s.log.Info("metrics service is running", zap.String("endpoint", s.Addr))
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("metrics service couldn't start", zap.Error(err))
	}
}

// ShutDown stops the service.
func (s *Service) ShutDown() {
	s.log.Info("shutting down metrics service", zap.String("endpoint", s.Addr))
	if err := s.Shutdown(context.Background()); err != nil {
		s.log.Error("can't shut metrics service down", zap.Error(err))
	}
}
