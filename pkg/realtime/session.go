// Package realtime implements the duplex protocol client for the upstream
// conversational-AI service. One Session owns one websocket connection and
// multiplexes audio, transcripts, and tool invocations over it.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/core/types"
)

// State is the session lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateActive
	StateClosing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateHandshaking:
		return "HANDSHAKING"
	case StateActive:
		return "ACTIVE"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Dispatcher executes one tool invocation and returns the payload to send
// back as the tool result. The payload is serialized as-is.
type Dispatcher func(ctx context.Context, name string, args map[string]any) any

// Session is one realtime protocol session. Callbacks are single-slot:
// setting one replaces the previous value. All callbacks are invoked from
// the Listen goroutine, one event at a time.
type Session struct {
	config *Config
	logger *slog.Logger

	conn  *websocket.Conn
	state atomic.Int32

	idMu      sync.Mutex
	sessionID string

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	cbMu             sync.Mutex
	onAudioDelta     func([]byte)
	onTranscript     func(string)
	onUserTranscript func(string)
	onError          func(ErrorEvent)
	dispatcher       Dispatcher
}

// NewSession creates a session from the config. Nothing is dialed until
// Connect.
func NewSession(config *Config) *Session {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		s.logger.Debug("session state changed", "from", prev.String(), "to", next.String())
	}
}

// SessionID returns the upstream session id, empty until session.created.
func (s *Session) SessionID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return s.sessionID
}

// OnAudioDelta sets the assistant-audio callback.
func (s *Session) OnAudioDelta(fn func([]byte)) {
	s.cbMu.Lock()
	s.onAudioDelta = fn
	s.cbMu.Unlock()
}

// OnTranscript sets the assistant-transcript callback.
func (s *Session) OnTranscript(fn func(string)) {
	s.cbMu.Lock()
	s.onTranscript = fn
	s.cbMu.Unlock()
}

// OnUserTranscript sets the caller-transcript callback.
func (s *Session) OnUserTranscript(fn func(string)) {
	s.cbMu.Lock()
	s.onUserTranscript = fn
	s.cbMu.Unlock()
}

// OnError sets the upstream-error callback. Upstream error events are
// reported and the session keeps running.
func (s *Session) OnError(fn func(ErrorEvent)) {
	s.cbMu.Lock()
	s.onError = fn
	s.cbMu.Unlock()
}

// OnFunctionCall sets the tool dispatcher.
func (s *Session) OnFunctionCall(fn Dispatcher) {
	s.cbMu.Lock()
	s.dispatcher = fn
	s.cbMu.Unlock()
}

// Connect dials the upstream service and performs the handshake. The
// session moves through Connecting and Handshaking to Active, and the
// session.update handshake is sent exactly once, before any other event.
func (s *Session) Connect(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	if !s.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return core.NewProtocolError("session already connected")
	}

	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+s.config.APIKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialCtx := ctx
	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		dialCtx, cancel = context.WithTimeout(ctx, s.config.ConnectTimeout)
		defer cancel()
	}

	wsURL := s.config.URL + "?model=" + s.config.Model
	s.logger.Info("connecting to realtime upstream", "url", s.config.URL, "model", s.config.Model)

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, headers)
	if err != nil {
		s.setState(StateDisconnected)
		if resp != nil {
			return core.NewTransportError("websocket dial failed (status "+resp.Status+")", err)
		}
		return core.NewTransportError("websocket dial failed", err)
	}
	s.conn = conn
	s.setState(StateHandshaking)

	if err := s.sendJSON(s.handshake()); err != nil {
		_ = conn.Close()
		s.conn = nil
		s.setState(StateDisconnected)
		return core.NewTransportError("send session handshake", err)
	}

	s.setState(StateActive)
	s.logger.Info("realtime session configured", "voice", s.config.Voice, "tools", len(s.config.Tools))
	return nil
}

func (s *Session) handshake() sessionUpdateFrame {
	payload := sessionPayload{
		Modalities:        []string{"text", "audio"},
		Voice:             s.config.Voice,
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		TurnDetection: &turnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMS:   300,
			SilenceDurationMS: 500,
		},
		Tools:                   s.config.Tools,
		ToolChoice:              "auto",
		Temperature:             s.config.Temperature,
		MaxResponseOutputTokens: s.config.MaxResponseTokens,
		Instructions:            s.config.Instructions,
	}
	if s.config.InputTranscription {
		payload.InputAudioTranscription = &transcriptionModel{Model: "whisper-1"}
	}
	if payload.Tools == nil {
		payload.Tools = []types.Tool{}
	}
	return sessionUpdateFrame{Type: "session.update", Session: payload}
}

// SendAudio appends one chunk of caller audio to the upstream input buffer.
func (s *Session) SendAudio(pcm []byte) error {
	if s.State() != StateActive {
		return core.NewNotConnectedError("cannot send audio: session is " + s.State().String())
	}
	return s.sendJSON(audioAppendFrame{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

// Commit commits the input audio buffer and asks for a response.
func (s *Session) Commit() error {
	if s.State() != StateActive {
		return core.NewNotConnectedError("cannot commit audio: session is " + s.State().String())
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(typeOnlyFrame{Type: "input_audio_buffer.commit"}); err != nil {
		return err
	}
	return s.conn.WriteJSON(typeOnlyFrame{Type: "response.create"})
}

// SendEvent sends an arbitrary protocol frame. Requires an active session.
func (s *Session) SendEvent(v any) error {
	if s.State() != StateActive {
		return core.NewNotConnectedError("cannot send event: session is " + s.State().String())
	}
	return s.sendJSON(v)
}

func (s *Session) sendJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// Listen runs the receive loop until the connection drops or Close is
// called. It returns nil on a clean close and a transport error otherwise.
// On exit the session is Disconnected and all callbacks are cleared.
func (s *Session) Listen(ctx context.Context) error {
	defer func() {
		s.setState(StateDisconnected)
		s.clearCallbacks()
		s.closeOnce.Do(func() {
			if s.conn != nil {
				_ = s.conn.Close()
			}
		})
		close(s.done)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.State() == StateClosing ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			s.setState(StateClosing)
			return core.NewTransportError("read upstream frame", err)
		}

		event, err := decodeEvent(data)
		if err != nil {
			s.logger.Warn("discarding undecodable frame", "error", err)
			continue
		}
		s.handleEvent(ctx, event)
	}
}

// Done is closed when the listen loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) handleEvent(ctx context.Context, event Event) {
	switch e := event.(type) {
	case SessionCreatedEvent:
		s.idMu.Lock()
		s.sessionID = e.SessionID
		s.idMu.Unlock()
		s.logger.Info("upstream session created", "session_id", e.SessionID)

	case AudioDeltaEvent:
		if fn := s.audioCallback(); fn != nil {
			fn(e.Audio)
		}

	case TranscriptEvent:
		if e.Text == "" {
			return
		}
		s.cbMu.Lock()
		fn := s.onTranscript
		s.cbMu.Unlock()
		if fn != nil {
			fn(e.Text)
		}

	case UserTranscriptEvent:
		if e.Text == "" {
			return
		}
		s.cbMu.Lock()
		fn := s.onUserTranscript
		s.cbMu.Unlock()
		if fn != nil {
			fn(e.Text)
		}

	case FunctionCallEvent:
		s.handleFunctionCall(ctx, e)

	case ResponseDoneEvent:
		s.logger.Debug("response completed")

	case SpeechStartedEvent:
		s.logger.Debug("caller started speaking")

	case SpeechStoppedEvent:
		s.logger.Debug("caller stopped speaking")

	case ErrorEvent:
		s.logger.Error("upstream error event", "code", e.Code, "message", e.Message)
		s.cbMu.Lock()
		fn := s.onError
		s.cbMu.Unlock()
		if fn != nil {
			fn(e)
		}

	case UnknownEvent:
		s.logger.Debug("ignoring unhandled event", "type", e.Type)
	}
}

func (s *Session) audioCallback() func([]byte) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.onAudioDelta
}

// handleFunctionCall runs one tool invocation. Exactly one tool result and
// one resume-generation request go back per invocation, in that order,
// whatever the dispatcher does.
func (s *Session) handleFunctionCall(ctx context.Context, e FunctionCallEvent) {
	s.logger.Info("function call", "tool", e.Name, "call_id", e.CallID)

	s.cbMu.Lock()
	dispatcher := s.dispatcher
	s.cbMu.Unlock()

	var result any
	if dispatcher == nil {
		s.logger.Warn("no dispatcher configured", "tool", e.Name)
		result = map[string]any{"error": "function handler not available"}
	} else {
		result = dispatcher(ctx, e.Name, e.Arguments)
	}

	if err := s.sendFunctionResult(e.CallID, result); err != nil {
		// The session dropped while the tool ran; the result is discarded.
		s.logger.Warn("discarding tool result", "tool", e.Name, "call_id", e.CallID, "error", err)
	}
}

func (s *Session) sendFunctionResult(callID string, result any) error {
	output, err := json.Marshal(result)
	if err != nil {
		output = []byte(`{"error":"unserializable tool result"}`)
	}

	// Hold the write lock across both frames so the tool result and its
	// resume request are never interleaved with another send.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(itemCreateFrame{
		Type: "conversation.item.create",
		Item: functionCallItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: string(output),
		},
	}); err != nil {
		return err
	}
	return s.conn.WriteJSON(typeOnlyFrame{Type: "response.create"})
}

// Close shuts the session down. Safe to call more than once and
// concurrently with Listen.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)
		if s.conn != nil {
			s.writeMu.Lock()
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(2*time.Second))
			s.writeMu.Unlock()
			_ = s.conn.Close()
		}
	})
	return nil
}

func (s *Session) clearCallbacks() {
	s.cbMu.Lock()
	s.onAudioDelta = nil
	s.onTranscript = nil
	s.onUserTranscript = nil
	s.onError = nil
	s.dispatcher = nil
	s.cbMu.Unlock()
}
