package recognize

import "context"

// Result is one event from the recognition service: a partial or final
// hypothesis, or a stream failure.
type Result struct {
	Text       string
	Final      bool
	Confidence float32
	Err        error
}

// Recognizer streams audio to a speech-to-text backend and yields
// incremental results. Implementations are not safe for concurrent Send.
type Recognizer interface {
	// Start opens the streaming session. The context governs the whole
	// session; cancelling it ends the result stream.
	Start(ctx context.Context) error

	// Send forwards one chunk of LINEAR16 audio.
	Send(chunk []byte) error

	// Results delivers hypotheses in arrival order. The channel closes
	// when the session ends.
	Results() <-chan Result

	// Close tears the session down and releases the client.
	Close() error
}
