// Package genx's transformer.go defines the one-Stream-in, one-Stream-out
// seam the call path's ASR/TTS legs are built from: a Transformer converts
// one MIME type to another while leaving the rest of a MessageChunk alone.
package genx

import "context"

// Transformer rewrites a Stream of one kind of content into a Stream of
// another — text/plain into audio/* for TTS, audio/* into text/plain for
// ASR — one MessageChunk at a time.
//
// # What a transformer may touch
//
// Role, Name, and Ctrl normally pass through unchanged; Part is the field a
// transformer exists to rewrite (Text → Blob for TTS, Blob → Text for ASR).
// A realtime model transformer is the exception that also flips Role from
// user to model, since it's voicing the model's own turn.
//
// Each transformer implicitly declares an input and output MIME type (e.g.
// ASR: "audio/*" in, "text/plain" out) and must pass through chunks that
// don't match its input type rather than drop or mangle them.
//
// # Context only bounds setup
//
// ctx governs Transform's own initialization — dialing a websocket,
// completing a handshake, opening a model session — nothing past the point
// Transform returns. The goroutines a transformer spawns to pump its
// input/output streams must never block on or select over that ctx; their
// only lifetime signal is the input Stream itself running out (io.EOF) or
// erroring. Cancel a running transformer by closing its input Stream, the
// same way you'd call Close on an os.File rather than cancel the context
// that opened it.
//
// # EOF vs end-of-sub-stream
//
// io.EOF from input.Next() means the input is physically finished: flush
// anything buffered, emit it, and return — without fabricating an
// end-of-stream marker. The downstream consumer learns the pipeline is done
// by seeing io.EOF from output.Next() in turn.
//
// An end-of-stream marker (MessageChunk.Ctrl.EndOfStream) is different: it's
// a logical sub-stream boundary the caller inserts mid-stream, and a single
// long-lived Stream can carry several of them before EOF —
//
//	[text, text, EoS] → [text, text, EoS] → [text, text, EoS] → EOF
//	     sub-stream 1        sub-stream 2        sub-stream 3
//
// On receiving one that matches its input type, a transformer flushes and
// emits its buffered output, emits its OWN translated EoS marker carrying
// the output MIME type, and keeps running — more sub-streams may follow:
//
//	[Text] → TTS → [Audio]       [Text EoS] → TTS → [Audio EoS]
//
// # Error propagation
//
// Errors flow both directions: closing the input stream surfaces as EOF
// from the output stream (forward), and a consumer calling
// CloseWithError on the output should have that error propagate back to the
// input (backward), so a downstream failure can unwind the whole pipeline.
type Transformer interface {
	// Transform opens an output Stream fed by input. pattern names the
	// model/voice/resource to use (e.g. "doubao/vv") — implementations that
	// don't need to distinguish resources may ignore it.
	//
	// Transform blocks until setup completes (e.g. the websocket connects)
	// and returns an error only for setup failures; once it returns
	// successfully, ctx is done being consulted and later processing errors
	// surface through the returned Stream's Next() instead.
	Transform(ctx context.Context, pattern string, input Stream) (Stream, error)
}
