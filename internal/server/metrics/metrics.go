// Package metrics exposes the server's prometheus collectors. Counters here
// back the observability signals the request path must not block on: a chat
// reply that could not be persisted is returned to the user anyway, but the
// loss shows up in PersistenceFailures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PersistenceFailures counts chat exchanges that were answered but could
	// not be written to the store.
	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_persistence_failures_total",
		Help: "Answered exchanges that failed to persist.",
	})

	// AllocatorRetries counts identifier draws discarded due to collisions.
	AllocatorRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_id_allocator_retries_total",
		Help: "Identifier allocation retries after a collision.",
	})

	// BackendErrors counts failed or timed-out AI backend calls.
	BackendErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_ai_backend_errors_total",
		Help: "Failed or timed-out chat backend calls.",
	})
)
