package agent

import (
	"context"
	"strings"
	"testing"
)

func TestKeywordRetriever_RanksByOverlap(t *testing.T) {
	r := NewKeywordRetriever(
		Passage{Title: "WiFi instabile", Content: "interferenza canale wifi cambiare canale"},
		Passage{Title: "Linea lenta", Content: "velocità ridotta speed test contratto"},
		Passage{Title: "Escalation", Content: "operatore umano tecnico ticket"},
	)

	got, err := r.Retrieve(context.Background(), "wifi lento per interferenza sul canale", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("Retrieve() returned no passages")
	}
	if got[0].Title != "WiFi instabile" {
		t.Errorf("top passage = %q, want %q", got[0].Title, "WiFi instabile")
	}
}

func TestKeywordRetriever_LimitsToK(t *testing.T) {
	r := NewDefaultKnowledgeBase()

	got, err := r.Retrieve(context.Background(), "linea segnale modem reset", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) > 3 {
		t.Errorf("Retrieve() = %d passages, want at most 3", len(got))
	}
}

func TestKeywordRetriever_NoMatch(t *testing.T) {
	r := NewDefaultKnowledgeBase()

	got, err := r.Retrieve(context.Background(), "zzzzz qqqqq", 3)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Retrieve() = %d passages, want 0", len(got))
	}
}

func TestEnrichPrompt(t *testing.T) {
	passages := []Passage{
		{Title: "Linea lenta", Content: "Velocità ridotta rispetto al contratto."},
	}

	got := EnrichPrompt("Il cliente lamenta internet lento", passages)
	if !strings.Contains(got, "Il cliente lamenta internet lento") {
		t.Error("enriched prompt lost the original text")
	}
	if !strings.Contains(got, "ESTRATTO KNOWLEDGE BASE: Linea lenta") {
		t.Error("enriched prompt missing knowledge excerpt header")
	}
}

func TestEnrichPrompt_NoPassages(t *testing.T) {
	got := EnrichPrompt("prompt", nil)
	if got != "prompt" {
		t.Errorf("EnrichPrompt() = %q, want unchanged prompt", got)
	}
}
