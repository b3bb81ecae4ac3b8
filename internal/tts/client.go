package tts

import "context"

// ChunkInput carries the parameters for one remote synthesis call.
type ChunkInput struct {
	Text         string
	VoiceID      string
	Format       Format
	Engine       string
	LanguageCode string
	SampleRate   int
	TextType     string
}

// Client is the narrow seam to the remote speech service. The pipeline only
// ever needs the voice listing and a single-chunk synthesis call, so backends
// (Polly, a local command, a mock) stay interchangeable and the pipeline is
// testable without network access.
type Client interface {
	// ListVoices returns every voice the service offers, optionally filtered
	// by language code. Implementations follow continuation tokens until the
	// listing is exhausted; any page failure fails the whole listing.
	ListVoices(ctx context.Context, languageCode string) ([]Voice, error)

	// SynthesizeChunk synthesizes one bounded-length piece of text and
	// returns the raw audio bytes.
	SynthesizeChunk(ctx context.Context, in ChunkInput) ([]byte, error)
}
