package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

var (
	Registry = prometheus.NewRegistry()

	EnvelopesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "envelopes_received_total",
			Help:      "Inbound envelopes handed to the node, by payload type.",
		},
		[]string{"type"},
	)

	EnvelopesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "envelopes_sent_total",
			Help:      "Outbound envelopes written, by payload type.",
		},
		[]string{"type"},
	)

	ProtocolViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "protocol_violations_total",
			Help:      "Envelopes refused by the node state machine.",
		},
	)

	BroadcastRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "broadcast_retries_total",
			Help:      "Peer broadcasts sent again after the deadline elapsed.",
		},
	)

	BroadcastAcknowledged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gossip",
			Name:      "broadcast_acknowledged_total",
			Help:      "Pending peer broadcasts cleared by an acknowledgment.",
		},
	)

	PendingAcknowledgments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gossip",
			Name:      "pending_acknowledgments",
			Help:      "Peer broadcasts waiting for acknowledgment.",
		},
	)

	ReplicaValues = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gossip",
			Name:      "replica_values",
			Help:      "Distinct broadcast values known to this node.",
		},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "gossip",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(
		EnvelopesReceived,
		EnvelopesSent,
		ProtocolViolations,
		BroadcastRetries,
		BroadcastAcknowledged,
		PendingAcknowledgments,
		ReplicaValues,
		uptime,
	)
}

// MetricsHandler exposes /metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on the address until the context is done.
func Serve(ctx context.Context, addr string, log hclog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("serving metrics", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server failed", "error", err)
	}
}

// Dump writes every registered metric using the text exposition
// format.
func Dump(w io.Writer) error {
	families, err := Registry.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
