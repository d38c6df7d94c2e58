// Package metrics exposes broadcast counters over Prometheus.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stellarlinkco/onair/internal/action"
)

// Metrics holds every collector on its own registry, so tests can build
// as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	Cycles       prometheus.Counter
	Fallbacks    *prometheus.CounterVec
	Utterances   *prometheus.CounterVec
	ChatMessages prometheus.Counter
	Events       prometheus.Counter
	Viewers      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onair_cycles_total",
			Help: "Completed broadcast cycles.",
		}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onair_generation_fallbacks_total",
			Help: "Generations that fell back to a canned line.",
		}, []string{"kind"}),
		Utterances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onair_utterances_total",
			Help: "Spoken utterances.",
		}, []string{"kind"}),
		ChatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onair_chat_messages_total",
			Help: "Chat messages perceived.",
		}),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "onair_events_total",
			Help: "Platform events perceived.",
		}),
		Viewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "onair_viewers",
			Help: "Current viewer count.",
		}),
	}
	m.registry.MustRegister(m.Cycles, m.Fallbacks, m.Utterances, m.ChatMessages, m.Events, m.Viewers)
	return m
}

func (m *Metrics) CycleDone() { m.Cycles.Inc() }

func (m *Metrics) GenerationFallback(kind action.Kind) {
	m.Fallbacks.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) UtteranceSpoken(kind action.Kind) {
	m.Utterances.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ChatSeen(n int)  { m.ChatMessages.Add(float64(n)) }
func (m *Metrics) EventSeen(n int) { m.Events.Add(float64(n)) }

// Serve runs the /metrics endpoint until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[metrics] serving on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[metrics] server failed: %v", err)
	}
}
