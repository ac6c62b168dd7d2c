// Package call tracks per-call conversation state: the active customer,
// the transcript, and the escalation decision.
package call

import (
	"strings"
	"sync"
	"time"

	"github.com/voicecare-ai/voicecare/pkg/agent"
)

// InitialGreeting is what the assistant says when the call connects.
const InitialGreeting = "Buongiorno, sono l'assistente virtuale del supporto tecnico. Per iniziare, può fornirmi il suo codice cliente o il numero di telefono dell'utenza?"

// EscalationMessage is spoken when handing the call to a human operator.
const EscalationMessage = "Capisco, la metto in contatto con un operatore specializzato che potrà assisterla meglio. Un momento per favore."

// Entry is one transcript line.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Summary captures a finished or in-flight call for logging and handoff.
type Summary struct {
	CallID       string  `json:"call_id"`
	CustomerID   string  `json:"customer_id,omitempty"`
	Duration     float64 `json:"duration_seconds"`
	MessageCount int     `json:"message_count"`
	Conversation []Entry `json:"conversation"`
}

// State is the conversation state for a single call. It is owned by one call
// and safe for the handful of goroutines that call owns.
type State struct {
	mu         sync.Mutex
	callID     string
	customerID string
	startedAt  time.Time
	escalated  bool
	transcript []Entry

	reasoner agent.Reasoner // optional, memory cleared on start and end
	now      func() time.Time
}

// New creates an idle call state. The reasoner may be nil.
func New(reasoner agent.Reasoner) *State {
	return &State{reasoner: reasoner, now: time.Now}
}

// Start begins a new call, clearing any previous state and the reasoner's
// conversational memory.
func (s *State) Start(callID string) {
	s.mu.Lock()
	s.callID = callID
	s.customerID = ""
	s.startedAt = s.now()
	s.escalated = false
	s.transcript = nil
	s.mu.Unlock()

	if s.reasoner != nil {
		s.reasoner.Reset()
	}
}

// SetCustomerID records the verified customer. The first verification wins;
// later calls are ignored.
func (s *State) SetCustomerID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerID == "" {
		s.customerID = id
	}
}

// CustomerID returns the verified customer id, empty until verification.
func (s *State) CustomerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerID
}

// CallID returns the current call id.
func (s *State) CallID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}

// AddEntry appends one transcript line.
func (s *State) AddEntry(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, Entry{Role: role, Content: content})
}

// MarkEscalated flags the call for human handoff.
func (s *State) MarkEscalated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escalated = true
}

// Escalated reports whether the call was flagged for handoff.
func (s *State) Escalated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.escalated
}

// End finishes the call and returns its duration. Safe to call more than
// once; only the first call reports a duration.
func (s *State) End() time.Duration {
	s.mu.Lock()
	var duration time.Duration
	if !s.startedAt.IsZero() {
		duration = s.now().Sub(s.startedAt)
	}
	s.callID = ""
	s.customerID = ""
	s.startedAt = time.Time{}
	s.mu.Unlock()

	if s.reasoner != nil {
		s.reasoner.Reset()
	}
	return duration
}

// Summary returns the call details for logging or operator handoff.
// Transcript entries are truncated so the summary stays log-sized.
func (s *State) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var duration float64
	if !s.startedAt.IsZero() {
		duration = s.now().Sub(s.startedAt).Seconds()
	}

	conversation := make([]Entry, len(s.transcript))
	for i, e := range s.transcript {
		conversation[i] = Entry{Role: e.Role, Content: truncate(e.Content, 200)}
	}

	return Summary{
		CallID:       s.callID,
		CustomerID:   s.customerID,
		Duration:     duration,
		MessageCount: len(s.transcript),
		Conversation: conversation,
	}
}

// escalationKeywords are phrases that may signal a request for a human.
// Each hit still needs an explicit want/talk word in the same message,
// otherwise "non funziona" alone would escalate every other call.
var escalationKeywords = []string{
	"operatore",
	"operatore umano",
	"persona vera",
	"parlare con una persona",
	"non funziona",
	"voglio un tecnico",
}

// ShouldEscalate reports whether a user message asks for a human operator.
func ShouldEscalate(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range escalationKeywords {
		if strings.Contains(lower, keyword) {
			if strings.Contains(lower, "voglio") || strings.Contains(lower, "parlare") {
				return true
			}
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
