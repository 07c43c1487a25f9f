package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// GatewayURL is the websocket endpoint for fresh sessions.
const GatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpIdentify       = 2
	OpResume         = 6
	OpReconnect      = 7
	OpInvalidSession = 9
	OpHello          = 10
	OpHeartbeatACK   = 11
)

// Gateway intents.
const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentDirectMessages = 1 << 12
	IntentMessageContent = 1 << 15
)

// Dispatch event names the relay consumes.
const (
	EventReady         = "READY"
	EventMessageCreate = "MESSAGE_CREATE"
	EventMessageUpdate = "MESSAGE_UPDATE"
	EventThreadDelete  = "THREAD_DELETE"
	EventThreadUpdate  = "THREAD_UPDATE"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Pause before redialing a dropped connection.
	reconnectWait = 5 * time.Second

	eventBuffer = 256
)

var errReconnectRequested = errors.New("gateway requested reconnect")

// Event is one gateway dispatch, payload still raw.
type Event struct {
	Type string
	Data json.RawMessage
}

type gatewayPayload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
	S  *int64          `json:"s"`
	T  string          `json:"t"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

type readyData struct {
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	User             User   `json:"user"`
}

// Session maintains one gateway connection, reconnecting and resuming
// as the platform directs. Dispatch events stream out on Events().
type Session struct {
	token   string
	intents int
	url     string
	dialer  *websocket.Dialer
	log     zerolog.Logger

	events chan Event

	writeMu sync.Mutex

	mu        sync.Mutex
	seq       int64
	sessionID string
	resumeURL string
	acked     bool
}

// NewSession prepares a gateway session. Call Run to connect.
func NewSession(token string, intents int, log zerolog.Logger) *Session {
	return &Session{
		token:   token,
		intents: intents,
		url:     GatewayURL,
		dialer:  websocket.DefaultDialer,
		log:     log,
		events:  make(chan Event, eventBuffer),
	}
}

// Events returns the dispatch stream. The channel closes when Run
// returns.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Run connects and serves the session until ctx is canceled, redialing
// on connection loss. It always returns nil after a cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.events)
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil && !errors.Is(err, errReconnectRequested) {
			s.log.Warn().Err(err).Msg("gateway connection lost")
		}

		select {
		case <-time.After(reconnectWait):
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) runOnce(ctx context.Context) error {
	dialURL := s.url
	if id, resumeURL := s.session(); id != "" && resumeURL != "" {
		dialURL = resumeURL
	}

	conn, resp, err := s.dialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		if dialURL != s.url {
			// Stale resume endpoint. Start over on the main gateway.
			s.clearSession()
		}
		if resp != nil {
			return fmt.Errorf("failed to dial gateway (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("failed to dial gateway: %w", err)
	}
	defer conn.Close()

	// Unblock the read loop when the context ends.
	stop := context.AfterFunc(ctx, func() {
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	})
	defer stop()

	p, err := s.read(conn)
	if err != nil {
		return err
	}
	if p.Op != OpHello {
		return fmt.Errorf("expected hello, got op %d", p.Op)
	}
	var hello struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(p.D, &hello); err != nil {
		return fmt.Errorf("failed to decode hello: %w", err)
	}
	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond

	if id, _ := s.session(); id != "" {
		err = s.writePayload(conn, OpResume, resumeData{
			Token:     s.token,
			SessionID: id,
			Seq:       s.sequence(),
		})
	} else {
		err = s.writePayload(conn, OpIdentify, identifyData{
			Token:   s.token,
			Intents: s.intents,
			Properties: identifyProperties{
				OS:      runtime.GOOS,
				Browser: "aghast",
				Device:  "aghast",
			},
		})
	}
	if err != nil {
		return err
	}

	s.setAcked(true)
	hbCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	hbErr := make(chan error, 1)
	go s.heartbeat(hbCtx, conn, interval, hbErr)

	for {
		p, err := s.read(conn)
		if err != nil {
			select {
			case herr := <-hbErr:
				return herr
			default:
			}
			return err
		}

		switch p.Op {
		case OpDispatch:
			if err := s.handleDispatch(ctx, p); err != nil {
				return err
			}
		case OpHeartbeat:
			if err := s.writePayload(conn, OpHeartbeat, s.sequence()); err != nil {
				return err
			}
		case OpHeartbeatACK:
			s.setAcked(true)
		case OpReconnect:
			return errReconnectRequested
		case OpInvalidSession:
			var resumable bool
			_ = json.Unmarshal(p.D, &resumable)
			if !resumable {
				s.clearSession()
			}
			return fmt.Errorf("gateway invalidated session (resumable=%t)", resumable)
		}
	}
}

func (s *Session) handleDispatch(ctx context.Context, p *gatewayPayload) error {
	if p.T == EventReady {
		var ready readyData
		if err := json.Unmarshal(p.D, &ready); err == nil {
			s.setSession(ready.SessionID, ready.ResumeGatewayURL)
			s.log.Info().Str("user", ready.User.Tag()).Msg("gateway ready")
		}
	}

	select {
	case s.events <- Event{Type: p.T, Data: p.D}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// heartbeat beats on the hello interval. A beat without an intervening
// ack means the connection is dead; the socket is closed to force the
// read loop out.
func (s *Session) heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration, hbErr chan<- error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.ackReceived() {
				hbErr <- errors.New("heartbeat ack missed")
				conn.Close()
				return
			}
			s.setAcked(false)
			if err := s.writePayload(conn, OpHeartbeat, s.sequence()); err != nil {
				hbErr <- fmt.Errorf("failed to send heartbeat: %w", err)
				conn.Close()
				return
			}
		}
	}
}

func (s *Session) read(conn *websocket.Conn) (*gatewayPayload, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var p gatewayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode gateway payload: %w", err)
	}
	if p.S != nil {
		s.setSequence(*p.S)
	}
	return &p, nil
}

func (s *Session) writePayload(conn *websocket.Conn, op int, d any) error {
	data, err := json.Marshal(struct {
		Op int `json:"op"`
		D  any `json:"d"`
	}{op, d})
	if err != nil {
		return fmt.Errorf("failed to encode gateway payload: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) sequence() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

func (s *Session) setSequence(seq int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = seq
}

func (s *Session) session() (id, resumeURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.resumeURL
}

func (s *Session) setSession(id, resumeURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
	s.resumeURL = resumeURL
}

func (s *Session) clearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = ""
	s.resumeURL = ""
	s.seq = 0
}

func (s *Session) ackReceived() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acked
}

func (s *Session) setAcked(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = v
}
