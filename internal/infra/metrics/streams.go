package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		streamsStarted,
		streamsEnded,
		streamsActive,
		streamFragments,
		streamFragmentBytes,
		aiTokensIn,
		aiTokensOut,
		aiTokensTotal,
	)
}

var (
	streamsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_streams_started_total",
			Help: "Streams started per model.",
		},
		[]string{"model"},
	)

	streamsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_streams_ended_total",
			Help: "Streams ended per model and terminal status (done/failed).",
		},
		[]string{"model", "status"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_streams_active",
			Help: "Streams currently in flight.",
		},
	)

	streamFragments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_stream_fragments_total",
			Help: "Fragments merged into stream buffers.",
		},
	)

	streamFragmentBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_stream_fragment_bytes_total",
			Help: "Bytes of fragment text merged into stream buffers.",
		},
	)

	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per model.",
		},
		[]string{"model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per model.",
		},
		[]string{"model"},
	)

	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Sum of total tokens per model.",
		},
		[]string{"model"},
	)
)

func ObserveStreamStart(model string) {
	streamsStarted.WithLabelValues(norm(model)).Inc()
	streamsActive.Inc()
}

func ObserveStreamEnd(model, status string) {
	streamsEnded.WithLabelValues(norm(model), norm(status)).Inc()
	streamsActive.Dec()
}

func ObserveFragment(bytes int) {
	streamFragments.Inc()
	streamFragmentBytes.Add(float64(bytes))
}

func ObserveStreamUsage(model string, in, out, total int) {
	if in > 0 {
		aiTokensIn.WithLabelValues(norm(model)).Add(float64(in))
	}
	if out > 0 {
		aiTokensOut.WithLabelValues(norm(model)).Add(float64(out))
	}
	if total > 0 {
		aiTokensTotal.WithLabelValues(norm(model)).Add(float64(total))
	}
}
