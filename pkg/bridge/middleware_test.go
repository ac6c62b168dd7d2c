package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if !cfg.MetricsEnabled || cfg.MetricsPath != "/metrics" {
		t.Errorf("metrics config = %v %q", cfg.MetricsEnabled, cfg.MetricsPath)
	}
	if cfg.MaxConcurrentCalls != 100 {
		t.Errorf("MaxConcurrentCalls = %d", cfg.MaxConcurrentCalls)
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	for _, opt := range []ConfigOption{
		WithHost("127.0.0.1"),
		WithPort(9090),
		WithAllowedOrigins([]string{"https://support.example.it"}),
		WithMetrics(false),
		WithMaxConcurrentCalls(5),
		WithCallIdleTimeout(time.Minute),
		WithTimeouts(10*time.Second, 20*time.Second, 5*time.Second),
	} {
		opt(cfg)
	}

	if cfg.Host != "127.0.0.1" || cfg.Port != 9090 {
		t.Errorf("addr = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.MetricsEnabled {
		t.Error("metrics should be disabled")
	}
	if cfg.MaxConcurrentCalls != 5 {
		t.Errorf("MaxConcurrentCalls = %d", cfg.MaxConcurrentCalls)
	}
	if cfg.CallIdleTimeout != time.Minute {
		t.Errorf("CallIdleTimeout = %v", cfg.CallIdleTimeout)
	}
	if cfg.ReadTimeout != 10*time.Second || cfg.WriteTimeout != 20*time.Second || cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("timeouts = %v %v %v", cfg.ReadTimeout, cfg.WriteTimeout, cfg.ShutdownTimeout)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BRIDGE_HOST", "10.0.0.1")
	t.Setenv("BRIDGE_PORT", "8181")
	t.Setenv("BRIDGE_MAX_CALLS", "7")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if cfg.Host != "10.0.0.1" || cfg.Port != 8181 {
		t.Errorf("addr = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.MaxConcurrentCalls != 7 {
		t.Errorf("MaxConcurrentCalls = %d", cfg.MaxConcurrentCalls)
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusAccepted)
	rw.Write([]byte("ciao"))

	if rw.StatusCode != http.StatusAccepted {
		t.Errorf("StatusCode = %d", rw.StatusCode)
	}
	if rw.BytesWritten != 4 {
		t.Errorf("BytesWritten = %d", rw.BytesWritten)
	}
	if rw.StatusString() != "202" {
		t.Errorf("StatusString = %q", rw.StatusString())
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		mw := NewCORSMiddleware([]string{"https://support.example.it"})
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://support.example.it")
		rec := httptest.NewRecorder()

		mw.Handle(next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://support.example.it" {
			t.Errorf("Allow-Origin = %q", got)
		}
	})

	t.Run("disallowed origin", func(t *testing.T) {
		mw := NewCORSMiddleware([]string{"https://support.example.it"})
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		mw.Handle(next).ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		mw := NewCORSMiddleware(nil)
		req := httptest.NewRequest("OPTIONS", "/health", nil)
		rec := httptest.NewRecorder()

		mw.Handle(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	mw := NewRecoveryMiddleware(discardLogger(), NewMetrics("test_recovery"))
	handler := mw.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLoggingMiddleware(t *testing.T) {
	mw := NewLoggingMiddleware(discardLogger())
	handler := mw.Log(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestIDFromContext(r.Context()) == "" {
			t.Error("request id missing from context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics("test_bridge")

	m.RecordCallStart()
	m.RecordCallEnd("completed", 90*time.Second)
	m.RecordAudio("input", 4096)
	m.RecordAudio("output", 8192)
	m.RecordToolExecution("verify_customer", "fast", "success", 50*time.Millisecond)
	m.RecordError("upstream_event")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"test_bridge_calls_total",
		"test_bridge_audio_bytes_total",
		"test_bridge_tool_executions_total",
		"test_bridge_errors_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
