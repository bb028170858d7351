// Package genx provides a unified streaming framework for multi-modal AI.
//
// # Core Types
//
// MessageChunk is the fundamental unit of data in a Stream:
//   - Role: The producer of this message (user, model, or tool)
//   - Name: The name of the producer (e.g., "alice", "assistant")
//   - Part: The content payload (Text or Blob)
//   - Ctrl: Stream control signals (optional, for routing and state)
//
// Stream is the primary data flow abstraction:
//
//	type Stream interface {
//	    Next() (*MessageChunk, error)
//	    Close() error
//	    CloseWithError(error) error
//	}
//
// Transformer converts a Stream into another Stream by rewriting each
// MessageChunk's Part (e.g. text to audio); Role, Name and Ctrl normally
// pass through unchanged.
//
// # Package Structure
//
//   - genx/transformers: Stream transformers
//     (Doubao ASR/TTS backends - rewrite Part, pass Role/Name/Ctrl through)
//
// Generator (OpenAIGenerator in this package) wraps an LLM as a
// Stream-in/Stream-out call, the substrate pkg/telephony/speechadapt and
// pkg/telephony/smsrouter build their domain-specific ModelContexts on top
// of.
//
// # Data Flow Example
//
// A typical phone-call pipeline:
//
//	Audio Input -> ASR Transformer -> LLMEngine -> TTS Transformer -> Audio Output
//	(Role=user)    (Part: audio→text)             (Part: text→audio)  (Role=model)
//
// Notice that Role stays "user" through ASR (it's still user's words),
// and becomes "model" after the LLM processes it.
package genx
