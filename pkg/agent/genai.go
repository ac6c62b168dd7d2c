package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

const systemInstructions = `Sei un agente di supporto tecnico per una compagnia di telecomunicazioni.
Aiuti a diagnosticare problemi di internet, WiFi e connettività.

Regole:
- Rispondi in italiano, in modo chiaro e conciso (conversazione vocale, massimo 3-4 frasi)
- Basa le tue risposte sui dati tecnici e sulla documentazione fornita nel prompt
- Non inventare valori: se un dato non è disponibile, dillo
- Proponi escalation a un operatore umano quando il problema non è risolvibile da remoto`

// GeminiReasoner is a Reasoner backed by the Gemini API.
//
// Each ProcessMessage call retrieves relevant knowledge, appends the enriched
// prompt to the conversation history, and issues one GenerateContent call
// with the full history so the model keeps context across tool invocations.
type GeminiReasoner struct {
	client    *genai.Client
	model     string
	retriever Retriever

	mu      sync.Mutex
	history []*genai.Content
}

// GeminiOption configures a GeminiReasoner.
type GeminiOption func(*GeminiReasoner)

// WithModel overrides the Gemini model name.
func WithModel(model string) GeminiOption {
	return func(r *GeminiReasoner) { r.model = model }
}

// WithRetriever sets the knowledge retriever used to enrich prompts.
func WithRetriever(ret Retriever) GeminiOption {
	return func(r *GeminiReasoner) { r.retriever = ret }
}

// NewGeminiReasoner creates a reasoner using the given API key.
func NewGeminiReasoner(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiReasoner, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	r := &GeminiReasoner{
		client:    client,
		model:     defaultGeminiModel,
		retriever: NewDefaultKnowledgeBase(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ProcessMessage answers one prompt, keeping conversational memory.
func (r *GeminiReasoner) ProcessMessage(ctx context.Context, prompt string) (string, error) {
	enriched := prompt
	if r.retriever != nil {
		passages, err := r.retriever.Retrieve(ctx, prompt, 3)
		if err == nil {
			enriched = EnrichPrompt(prompt, passages)
		}
	}

	r.mu.Lock()
	r.history = append(r.history, genai.NewContentFromText(enriched, genai.RoleUser))
	contents := make([]*genai.Content, len(r.history))
	copy(contents, r.history)
	r.mu.Unlock()

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstructions, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.1),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	r.mu.Lock()
	r.history = append(r.history, genai.NewContentFromText(text, genai.RoleModel))
	r.mu.Unlock()

	return text, nil
}

// Reset clears the conversational memory.
func (r *GeminiReasoner) Reset() {
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()
}

// EnrichPrompt appends retrieved knowledge excerpts to a prompt.
func EnrichPrompt(prompt string, passages []Passage) string {
	if len(passages) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n[La seguente documentazione può essere rilevante]\n")
	for _, p := range passages {
		b.WriteString("\n[ESTRATTO KNOWLEDGE BASE: ")
		b.WriteString(p.Title)
		b.WriteString("]\n")
		b.WriteString(p.Content)
		b.WriteString("\n")
	}
	return b.String()
}
