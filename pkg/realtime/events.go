package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voicecare-ai/voicecare/pkg/core/types"
)

// Event is a decoded upstream protocol event.
type Event interface {
	eventType() string
}

// SessionCreatedEvent confirms the upstream session and carries its id.
type SessionCreatedEvent struct {
	SessionID string
}

func (e SessionCreatedEvent) eventType() string { return "session.created" }

// AudioDeltaEvent carries one decoded chunk of assistant audio.
type AudioDeltaEvent struct {
	Audio []byte
}

func (e AudioDeltaEvent) eventType() string { return "response.audio.delta" }

// TranscriptEvent carries the transcript of a finished assistant response.
type TranscriptEvent struct {
	Text string
}

func (e TranscriptEvent) eventType() string { return "response.audio.transcript.done" }

// UserTranscriptEvent carries the transcription of the caller's speech.
type UserTranscriptEvent struct {
	Text string
}

func (e UserTranscriptEvent) eventType() string {
	return "conversation.item.input_audio_transcription.completed"
}

// FunctionCallEvent is a tool invocation requested by the model. Arguments
// arrive as a serialized JSON string; a malformed payload degrades to an
// empty map rather than failing the invocation.
type FunctionCallEvent struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

func (e FunctionCallEvent) eventType() string { return "response.function_call_arguments.done" }

// ResponseDoneEvent marks the end of one model response.
type ResponseDoneEvent struct{}

func (e ResponseDoneEvent) eventType() string { return "response.done" }

// SpeechStartedEvent signals server-side VAD detected the caller speaking.
type SpeechStartedEvent struct{}

func (e SpeechStartedEvent) eventType() string { return "input_audio_buffer.speech_started" }

// SpeechStoppedEvent signals server-side VAD detected silence.
type SpeechStoppedEvent struct{}

func (e SpeechStoppedEvent) eventType() string { return "input_audio_buffer.speech_stopped" }

// ErrorEvent is a non-fatal error reported by the upstream service.
type ErrorEvent struct {
	Code    string
	Message string
}

func (e ErrorEvent) eventType() string { return "error" }

// UnknownEvent wraps any event type this client does not handle.
type UnknownEvent struct {
	Type string
	Raw  json.RawMessage
}

func (e UnknownEvent) eventType() string { return e.Type }

// decodeEvent parses one upstream text frame into a typed event.
func decodeEvent(data []byte) (Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, fmt.Errorf("event frame missing type")
	}

	switch typ {
	case "session.created":
		var payload struct {
			Session struct {
				ID string `json:"id"`
			} `json:"session"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode session.created: %w", err)
		}
		return SessionCreatedEvent{SessionID: payload.Session.ID}, nil

	case "response.audio.delta":
		var payload struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode response.audio.delta: %w", err)
		}
		audio, err := base64.StdEncoding.DecodeString(payload.Delta)
		if err != nil {
			return nil, fmt.Errorf("decode audio delta payload: %w", err)
		}
		return AudioDeltaEvent{Audio: audio}, nil

	case "response.audio.transcript.done":
		var payload struct {
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		return TranscriptEvent{Text: payload.Transcript}, nil

	case "conversation.item.input_audio_transcription.completed":
		var payload struct {
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode input transcription: %w", err)
		}
		return UserTranscriptEvent{Text: payload.Transcript}, nil

	case "response.function_call_arguments.done":
		var payload struct {
			CallID    string `json:"call_id"`
			Name      string `json:"name"`
			Arguments string `json:"arguments"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode function call: %w", err)
		}
		args := map[string]any{}
		if payload.Arguments != "" {
			if err := json.Unmarshal([]byte(payload.Arguments), &args); err != nil {
				// Malformed arguments degrade to an empty map; the tool
				// decides what missing arguments mean.
				args = map[string]any{}
			}
		}
		return FunctionCallEvent{CallID: payload.CallID, Name: payload.Name, Arguments: args}, nil

	case "response.done":
		return ResponseDoneEvent{}, nil

	case "input_audio_buffer.speech_started":
		return SpeechStartedEvent{}, nil

	case "input_audio_buffer.speech_stopped":
		return SpeechStoppedEvent{}, nil

	case "error":
		var payload struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return ErrorEvent{Code: payload.Error.Code, Message: payload.Error.Message}, nil

	default:
		return UnknownEvent{Type: typ, Raw: json.RawMessage(data)}, nil
	}
}

// Outbound wire frames.

type sessionUpdateFrame struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	Modalities              []string            `json:"modalities"`
	Voice                   string              `json:"voice"`
	InputAudioFormat        string              `json:"input_audio_format"`
	OutputAudioFormat       string              `json:"output_audio_format"`
	InputAudioTranscription *transcriptionModel `json:"input_audio_transcription,omitempty"`
	TurnDetection           *turnDetection      `json:"turn_detection,omitempty"`
	Tools                   []types.Tool        `json:"tools"`
	ToolChoice              string              `json:"tool_choice"`
	Temperature             float64             `json:"temperature,omitempty"`
	MaxResponseOutputTokens int                 `json:"max_response_output_tokens,omitempty"`
	Instructions            string              `json:"instructions"`
}

type transcriptionModel struct {
	Model string `json:"model"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMS   int     `json:"prefix_padding_ms"`
	SilenceDurationMS int     `json:"silence_duration_ms"`
}

type audioAppendFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type typeOnlyFrame struct {
	Type string `json:"type"`
}

type itemCreateFrame struct {
	Type string           `json:"type"`
	Item functionCallItem `json:"item"`
}

type functionCallItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}
