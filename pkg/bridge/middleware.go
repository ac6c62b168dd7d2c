package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/voicecare-ai/voicecare/pkg/core"
)

// contextKey is a type for context keys.
type contextKey string

// ContextKeyRequestID is the context key for the request ID.
const ContextKeyRequestID contextKey = "request_id"

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

func statusForError(err *core.Error) int {
	switch err.Type {
	case core.ErrUnknownTool:
		return http.StatusNotFound
	case core.ErrArgumentParse, core.ErrProtocol:
		return http.StatusBadRequest
	case core.ErrTransport:
		return http.StatusBadGateway
	case core.ErrNotConnected, core.ErrStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONError(w http.ResponseWriter, err *core.Error, requestID string) {
	writeJSONErrorWithStatus(w, statusForError(err), err, requestID)
}

func writeJSONErrorWithStatus(w http.ResponseWriter, status int, err *core.Error, requestID string) {
	if err == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]any{
		"type":  "error",
		"error": map[string]any{"type": string(err.Type), "message": err.Message},
	}
	if requestID != "" {
		payload["request_id"] = requestID
	}
	json.NewEncoder(w).Encode(payload)
}

// LoggingMiddleware provides request logging.
type LoggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger *slog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Log is the HTTP middleware handler.
func (l *LoggingMiddleware) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		rw := NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		if l.logger != nil {
			duration := time.Since(start)
			l.logger.Info("request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.StatusCode,
				"bytes", rw.BytesWritten,
				"duration_ms", duration.Milliseconds(),
			)
		}
	})
}

// CORSMiddleware adds CORS headers.
type CORSMiddleware struct {
	allowedOrigins []string
}

// NewCORSMiddleware creates a new CORS middleware.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &CORSMiddleware{allowedOrigins: allowedOrigins}
}

// Allowed reports whether the given origin may connect.
func (c *CORSMiddleware) Allowed(origin string) bool {
	for _, o := range c.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Handle is the HTTP middleware handler.
func (c *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if c.Allowed(origin) {
			if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware recovers from panics.
type RecoveryMiddleware struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger *slog.Logger, metrics *Metrics) *RecoveryMiddleware {
	return &RecoveryMiddleware{logger: logger, metrics: metrics}
}

// Recover is the HTTP middleware handler.
func (rm *RecoveryMiddleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if rm.logger != nil {
					rm.logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
				}
				if rm.metrics != nil {
					rm.metrics.RecordError("panic")
				}
				writeJSONErrorWithStatus(w, http.StatusInternalServerError, core.NewConfigError("Internal server error"), requestIDFromContext(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

var requestCounter uint64
var requestCounterMu sync.Mutex

func generateRequestID() string {
	requestCounterMu.Lock()
	requestCounter++
	count := requestCounter
	requestCounterMu.Unlock()
	return "req_" + time.Now().Format("20060102150405") + "_" + uintToString(count)
}

func uintToString(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	return string(buf[i:])
}
