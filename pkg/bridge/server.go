package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/voicecare-ai/voicecare/pkg/agent"
	"github.com/voicecare-ai/voicecare/pkg/call"
	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/realtime"
	"github.com/voicecare-ai/voicecare/pkg/router"
)

// Server is the voice bridge server.
type Server struct {
	config *Config
	logger *slog.Logger

	// Core components
	router   *router.Router
	upstream *realtime.Config
	reasoner agent.Reasoner

	// HTTP server
	httpServer *http.Server
	mux        *http.ServeMux

	// Middleware
	logging  *LoggingMiddleware
	recovery *RecoveryMiddleware
	cors     *CORSMiddleware

	// Metrics
	metrics *Metrics

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// Lifecycle
	done     chan struct{}
	shutdown atomic.Bool

	// Call tracking
	activeCalls atomic.Int64
}

// NewServer creates a new bridge server. The router handles intercepted tool
// calls, upstream configures the realtime session opened per call, and the
// reasoner (optional, may be nil) keeps conversational memory across turns.
func NewServer(rt *router.Router, upstream *realtime.Config, reasoner agent.Reasoner, opts ...ConfigOption) (*Server, error) {
	if rt == nil {
		return nil, core.NewConfigError("router is required")
	}
	if upstream == nil {
		return nil, core.NewConfigError("upstream session config is required")
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics := NewMetrics("voicecare")
	cors := NewCORSMiddleware(config.AllowedOrigins)

	s := &Server{
		config:   config,
		logger:   logger,
		router:   rt,
		upstream: upstream,
		reasoner: reasoner,
		metrics:  metrics,
		cors:     cors,
		done:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin: func(r *http.Request) bool {
				return cors.Allowed(r.Header.Get("Origin"))
			},
		},
	}

	s.logging = NewLoggingMiddleware(logger)
	s.recovery = NewRecoveryMiddleware(logger, metrics)

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() {
	s.mux = http.NewServeMux()

	s.mux.Handle("GET /health", s.withMiddleware(http.HandlerFunc(s.handleHealth)))

	if s.config.MetricsEnabled {
		s.mux.Handle("GET "+s.config.MetricsPath, s.metrics.Handler())
	}

	s.mux.Handle("GET /{$}", s.withMiddleware(http.HandlerFunc(s.handleRoot)))

	// WebSocket endpoint for voice calls. The upgrader does its own origin
	// check, so only recovery wraps it.
	s.mux.Handle("GET /ws/voice", s.recovery.Recover(http.HandlerFunc(s.handleVoice)))
}

// withMiddleware wraps a handler with all middleware.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (innermost first)
	handler = s.recovery.Recover(handler)
	handler = s.cors.Handle(handler)
	handler = s.logging.Log(handler)
	return handler
}

// Start starts the server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("server starting",
		"addr", addr,
		"tls", s.config.TLSEnabled,
	)

	if s.config.TLSEnabled {
		return s.httpServer.ServeTLS(listener, s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	return s.httpServer.Serve(listener)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdown.Swap(true) {
		return nil
	}
	close(s.done)

	s.logger.Info("server shutting down")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// ActiveCalls returns the number of calls currently in flight.
func (s *Server) ActiveCalls() int {
	return int(s.activeCalls.Load())
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":       "healthy",
		"service":      "voicecare",
		"version":      "1.0.0",
		"active_calls": s.activeCalls.Load(),
		"reasoner":     s.reasoner != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleRoot describes the service endpoints.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	descriptor := map[string]any{
		"service": "voicecare",
		"endpoints": map[string]any{
			"voice":  "/ws/voice",
			"health": "/health",
		},
	}
	if s.config.MetricsEnabled {
		descriptor["endpoints"].(map[string]any)["metrics"] = s.config.MetricsPath
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(descriptor)
}

// clientFrame is a message from the caller's client.
type clientFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// wsClient serializes writes to the caller's WebSocket. Session callbacks
// and the call handler write concurrently.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsClient) writeError(message string) {
	_ = c.writeJSON(map[string]any{"type": "error", "message": message})
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = c.conn.Close()
}

// handleVoice runs one voice call end to end: upgrade the caller's socket,
// open the upstream realtime session, and forward audio and transcripts
// between the two until either side hangs up.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxConcurrentCalls > 0 && int(s.activeCalls.Load()) >= s.config.MaxConcurrentCalls {
		writeJSONErrorWithStatus(w, http.StatusTooManyRequests, core.NewConfigError("Too many concurrent calls"), requestIDFromContext(r.Context()))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	defer client.close()

	callID := "call_" + uuid.NewString()
	logger := s.logger.With("call_id", callID)

	state := call.New(s.reasoner)
	state.Start(callID)

	s.activeCalls.Add(1)
	s.metrics.RecordCallStart()

	defer func() {
		summary := state.Summary()
		duration := state.End()
		status := "completed"
		if state.Escalated() {
			status = "escalated"
		}
		s.activeCalls.Add(-1)
		s.metrics.RecordCallEnd(status, duration)

		_ = client.writeJSON(map[string]any{"type": "session.ended", "summary": summary})
		logger.Info("call ended",
			"status", status,
			"duration_s", duration.Seconds(),
			"messages", summary.MessageCount,
			"customer_id", summary.CustomerID,
		)
	}()

	logger.Info("call started", "remote_addr", r.RemoteAddr)

	session := realtime.NewSession(s.upstream)
	s.wireSession(session, state, client, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := session.Connect(ctx); err != nil {
		logger.Error("upstream connect failed", "error", err)
		s.metrics.RecordError("upstream_connect")
		client.writeError("Servizio momentaneamente non disponibile.")
		return
	}
	defer session.Close()

	_ = client.writeJSON(map[string]any{
		"type":     "session.started",
		"call_id":  callID,
		"greeting": call.InitialGreeting,
	})

	listenDone := make(chan struct{})
	go func() {
		defer close(listenDone)
		if err := session.Listen(ctx); err != nil {
			logger.Error("upstream session failed", "error", err)
			s.metrics.RecordError("upstream_listen")
		}
	}()

	// Unblock the client read loop when the upstream goes away first. An
	// expired read deadline ends the loop but leaves the socket writable,
	// so the call summary still reaches the caller.
	go func() {
		select {
		case <-listenDone:
			_ = conn.SetReadDeadline(time.Now())
		case <-ctx.Done():
		}
	}()

	s.clientLoop(session, client, conn, logger)
}

// wireSession attaches the per-call callbacks to the upstream session.
func (s *Server) wireSession(session *realtime.Session, state *call.State, client *wsClient, logger *slog.Logger) {
	session.OnAudioDelta(func(pcm []byte) {
		s.metrics.RecordAudio("output", len(pcm))
		_ = client.writeJSON(map[string]any{
			"type":  "audio",
			"audio": base64.StdEncoding.EncodeToString(pcm),
		})
	})

	session.OnTranscript(func(text string) {
		state.AddEntry("assistant", text)
		_ = client.writeJSON(map[string]any{
			"type": "transcript",
			"role": "assistant",
			"text": text,
		})
	})

	session.OnUserTranscript(func(text string) {
		state.AddEntry("user", text)
		_ = client.writeJSON(map[string]any{
			"type": "transcript",
			"role": "user",
			"text": text,
		})
		if !state.Escalated() && call.ShouldEscalate(text) {
			state.MarkEscalated()
			logger.Info("call escalation requested")
			_ = client.writeJSON(map[string]any{
				"type":    "escalation",
				"message": call.EscalationMessage,
			})
		}
	})

	session.OnError(func(e realtime.ErrorEvent) {
		logger.Warn("upstream error event", "code", e.Code, "message", e.Message)
		s.metrics.RecordError("upstream_event")
	})

	session.OnFunctionCall(func(ctx context.Context, name string, args map[string]any) any {
		return s.dispatch(ctx, state, logger, name, args)
	})
}

// dispatch runs one intercepted tool call through the router and records
// what happened on the call state.
func (s *Server) dispatch(ctx context.Context, state *call.State, logger *slog.Logger, name string, args map[string]any) *router.Result {
	if args == nil {
		args = map[string]any{}
	}
	// Deep-tier prompts need the verified customer even when the model
	// forgets to pass it along.
	if _, ok := args["customer_id"]; !ok {
		if id := state.CustomerID(); id != "" {
			args["customer_id"] = id
		}
	}

	start := time.Now()
	result := s.router.Execute(ctx, name, args)
	elapsed := time.Since(start)

	status := "success"
	if !result.Success {
		status = "failed"
	}
	s.metrics.RecordToolExecution(name, string(router.TierFor(name)), status, elapsed)
	logger.Info("tool dispatched", "tool", name, "status", status, "duration_ms", elapsed.Milliseconds())

	if result.Success && result.Raw != nil {
		if id, ok := result.Raw["customer_id"].(string); ok && id != "" {
			state.SetCustomerID(id)
		}
	}

	return result
}

// clientLoop reads frames from the caller until the connection drops.
func (s *Server) clientLoop(session *realtime.Session, client *wsClient, conn *websocket.Conn, logger *slog.Logger) {
	for {
		if s.config.CallIdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.config.CallIdleTimeout))
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			client.writeError("Invalid JSON frame")
			continue
		}

		switch frame.Type {
		case "audio":
			pcm, err := base64.StdEncoding.DecodeString(frame.Audio)
			if err != nil {
				client.writeError("Invalid audio encoding")
				continue
			}
			s.metrics.RecordAudio("input", len(pcm))
			if err := session.SendAudio(pcm); err != nil {
				logger.Warn("audio forward failed", "error", err)
				return
			}
		case "commit":
			if err := session.Commit(); err != nil {
				logger.Warn("commit failed", "error", err)
				return
			}
		case "end":
			return
		default:
			client.writeError("Unknown frame type: " + frame.Type)
		}
	}
}
