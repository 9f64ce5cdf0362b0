// Package satellite talks to the voice satellite that announces and plays
// media for the household.
package satellite

import "context"

// State is the satellite's assistant pipeline state.
type State string

const (
	// StateIdle means the assistant is not engaged; during a ring it
	// signals the current announcement cycle has drained.
	StateIdle State = "idle"
	// StateResponding means the satellite is speaking.
	StateResponding State = "responding"
	// StateListening means the user has engaged the assistant; rings must
	// stay quiet while it lasts.
	StateListening State = "listening"
	// StateUnknown is reported when the satellite cannot be reached.
	StateUnknown State = "unknown"
)

// Client is the transport to a satellite device.
type Client interface {
	// Speak announces text through the satellite's TTS and returns when
	// the satellite has accepted the request.
	Speak(ctx context.Context, target, text string) error

	// Play starts media playback on the satellite. It does not wait for
	// playback to finish.
	Play(ctx context.Context, target, mediaPath string) error

	// Subscribe streams state changes until ctx is done. The channel is
	// closed on return.
	Subscribe(ctx context.Context) (<-chan State, error)
}
