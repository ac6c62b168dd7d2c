package realtime

import (
	"log/slog"
	"os"
	"time"

	"github.com/voicecare-ai/voicecare/pkg/core"
	"github.com/voicecare-ai/voicecare/pkg/core/types"
)

const (
	// DefaultURL is the upstream realtime endpoint.
	DefaultURL = "wss://api.openai.com/v1/realtime"
	// DefaultModel is the realtime model dialed by default.
	DefaultModel = "gpt-4o-realtime-preview-2024-10-01"
	// DefaultVoice is the assistant voice.
	DefaultVoice = "alloy"

	defaultConnectTimeout = 15 * time.Second
)

// DefaultInstructions is the system prompt negotiated in the handshake.
const DefaultInstructions = `Sei un assistente virtuale per supporto tecnico telecomunicazioni.

RUOLO:
- Aiuti clienti con problemi internet, WiFi, connessione
- Tono professionale ma cordiale
- Risposte BREVI (conversazione vocale, max 2-3 frasi)
- Parli in ITALIANO

WORKFLOW OBBLIGATORIO:
1. SEMPRE come prima cosa: verifica cliente con verify_customer()
2. Ascolta il problema
3. Usa functions appropriate per diagnosi
4. Proponi soluzione o escalation

FUNCTIONS DISPONIBILI:
- verify_customer: SEMPRE prima di tutto
- diagnose_connection: per problemi connessione (usa quando non sai causa)
- check_line_status: controllo tecnico linea
- run_speed_test: test velocità
- reset_modem: riavvio modem (AVVISA prima che internet cadrà 2-3 min!)
- change_wifi_password: cambio password WiFi

QUANDO USARE FUNCTIONS:
- User dice codice cliente → verify_customer()
- "Internet non funziona" → diagnose_connection()
- "Internet lento" → run_speed_test()
- Dopo aver verificato → reset_modem() se necessario

IMPORTANTE:
- BREVITÀ: max 2-3 frasi per risposta
- Mentre function lavora, di' "un momento, controllo..."
- Se user frustrato o problema persistente: proponi operatore umano
- Non fare supposizioni tecniche, usa functions per dati reali`

// Config holds realtime session configuration.
type Config struct {
	URL    string
	APIKey string
	Model  string
	Voice  string

	Instructions       string
	Tools              []types.Tool
	InputTranscription bool
	Temperature        float64
	MaxResponseTokens  int

	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultConfig returns a config with sensible defaults. The API key still
// has to be provided.
func DefaultConfig() *Config {
	return &Config{
		URL:                DefaultURL,
		Model:              DefaultModel,
		Voice:              DefaultVoice,
		Instructions:       DefaultInstructions,
		InputTranscription: true,
		Temperature:        0.8,
		MaxResponseTokens:  4096,
		ConnectTimeout:     defaultConnectTimeout,
		Logger:             slog.Default(),
	}
}

// ConfigOption modifies a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the upstream API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the realtime model.
func WithModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

// WithVoice sets the assistant voice.
func WithVoice(voice string) ConfigOption {
	return func(c *Config) { c.Voice = voice }
}

// WithURL overrides the upstream endpoint, mainly for tests.
func WithURL(url string) ConfigOption {
	return func(c *Config) { c.URL = url }
}

// WithInstructions overrides the system prompt.
func WithInstructions(instructions string) ConfigOption {
	return func(c *Config) { c.Instructions = instructions }
}

// WithTools sets the tool catalog advertised in the handshake.
func WithTools(tools []types.Tool) ConfigOption {
	return func(c *Config) { c.Tools = tools }
}

// WithConnectTimeout bounds the dial plus handshake.
func WithConnectTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.ConnectTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) { c.Logger = logger }
}

// NewConfig builds a config from defaults plus options.
func NewConfig(opts ...ConfigOption) *Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadFromEnv fills unset fields from the environment.
func (c *Config) LoadFromEnv() {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if model := os.Getenv("REALTIME_MODEL"); model != "" {
		c.Model = model
	}
	if voice := os.Getenv("REALTIME_VOICE"); voice != "" {
		c.Voice = voice
	}
}

// Validate checks that the config can produce a session.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return core.NewConfigError("realtime API key is required")
	}
	if c.URL == "" {
		return core.NewConfigError("realtime URL is required")
	}
	if c.Model == "" {
		return core.NewConfigError("realtime model is required")
	}
	return nil
}
