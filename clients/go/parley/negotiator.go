package parley

import "time"

// TransportState is the current mode of the realtime transport.
type TransportState int

const (
	// StateConnecting means a websocket dial is in flight.
	StateConnecting TransportState = iota
	// StateOpen means the websocket is established and delivering events.
	StateOpen
	// StateReconnecting means the socket closed cleanly and a redial is
	// scheduled.
	StateReconnecting
	// StatePolling means the client has degraded to HTTP polling.
	// Polling is terminal: once entered, the negotiator never dials
	// again for the life of the session.
	StatePolling
)

func (s TransportState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StatePolling:
		return "polling"
	default:
		return "unknown"
	}
}

const (
	// OpenTimeout is how long a dial may stay in Connecting before the
	// attempt is abandoned.
	OpenTimeout = 5 * time.Second
	// MaxReconnectAttempts bounds redials after a clean close.
	MaxReconnectAttempts = 3
	// ReconnectBackoffStep scales linearly with the attempt number.
	ReconnectBackoffStep = 3 * time.Second
	// PollInterval is the message/notification refresh cadence in Polling.
	PollInterval = 5 * time.Second
	// HeartbeatInterval paces presence heartbeats in every state.
	HeartbeatInterval = 30 * time.Second
)

// Negotiator decides transport transitions. It holds no socket and does
// no I/O, so every path can be exercised directly.
//
// Transitions:
//   - Connecting --open--> Open
//   - Connecting --timeout/error--> Polling
//   - Open --clean close--> Reconnecting (bounded, increasing backoff)
//   - Open --dirty close/error--> Polling
//   - Reconnecting --open--> Open (attempt counter resets)
//   - Reconnecting --exhausted--> Polling
type Negotiator struct {
	state    TransportState
	attempts int
}

// NewNegotiator starts in Connecting with no attempts consumed.
func NewNegotiator() *Negotiator {
	return &Negotiator{state: StateConnecting}
}

// State returns the current transport state.
func (n *Negotiator) State() TransportState {
	return n.state
}

// Attempts returns how many reconnects have been consumed.
func (n *Negotiator) Attempts() int {
	return n.attempts
}

// OnOpen records a successful websocket handshake. The attempt counter
// resets so a later clean close gets a full retry budget.
func (n *Negotiator) OnOpen() TransportState {
	if n.state == StatePolling {
		return n.state
	}
	n.state = StateOpen
	n.attempts = 0
	return n.state
}

// OnOpenTimeout handles a dial that never completed within OpenTimeout.
func (n *Negotiator) OnOpenTimeout() TransportState {
	if n.state == StatePolling {
		return n.state
	}
	n.state = StatePolling
	return n.state
}

// OnError handles an outright dial failure or a non-clean socket close.
func (n *Negotiator) OnError() TransportState {
	if n.state == StatePolling {
		return n.state
	}
	n.state = StatePolling
	return n.state
}

// OnCleanClose handles a graceful socket closure. It returns the next
// state and, when the next state is Reconnecting, the backoff to wait
// before redialing.
func (n *Negotiator) OnCleanClose() (TransportState, time.Duration) {
	if n.state == StatePolling {
		return n.state, 0
	}
	if n.attempts >= MaxReconnectAttempts {
		n.state = StatePolling
		return n.state, 0
	}
	n.attempts++
	n.state = StateReconnecting
	return n.state, time.Duration(n.attempts) * ReconnectBackoffStep
}
