package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Interaction endpoint metrics
	InteractionsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aghast_interactions_handled_total",
			Help: "Total interactions dispatched",
		},
		[]string{"kind"}, // "ping", "command", "component", "modal"
	)

	InteractionAuthFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aghast_interaction_auth_failures_total",
			Help: "Total interaction requests rejected before parsing",
		},
	)

	// Gateway metrics
	GatewayEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aghast_gateway_events_total",
			Help: "Total gateway dispatch events received",
		},
		[]string{"type"},
	)

	// Ticket metrics
	TicketsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aghast_tickets_opened_total",
			Help: "Total tickets opened",
		},
	)

	TicketsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aghast_tickets_closed_total",
			Help: "Total tickets closed",
		},
	)

	TicketSelfHeals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aghast_ticket_self_heals_total",
			Help: "Total stale tickets dropped after the remote thread vanished",
		},
	)

	MessagesMirrored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aghast_messages_mirrored_total",
			Help: "Total messages mirrored between DMs and threads",
		},
		[]string{"direction"}, // "dm_to_thread" or "thread_to_dm"
	)

	EditsPropagated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aghast_edits_propagated_total",
			Help: "Total message edits propagated to counterparts",
		},
		[]string{"direction"},
	)
)
