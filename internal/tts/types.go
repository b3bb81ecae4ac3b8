package tts

import "strings"

// Format identifies an audio output format.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg_vorbis"
	FormatPCM Format = "pcm"
	// FormatWAV is a local container target: the driver never requests it
	// from the remote service, the assembler builds it from pcm output.
	FormatWAV Format = "wav"
)

// Text type flags accepted by the remote service.
const (
	TextTypePlain = "text"
	TextTypeSSML  = "ssml"
)

// Voice describes one synthetic speaker offered by the remote catalog.
type Voice struct {
	ID               string
	Name             string
	Gender           string
	LanguageCode     string
	SupportedEngines []string
}

// SupportsEngine reports whether the voice lists the engine, case-insensitively.
func (v Voice) SupportsEngine(engine string) bool {
	for _, e := range v.SupportedEngines {
		if strings.EqualFold(e, engine) {
			return true
		}
	}
	return false
}

// Request carries one synthesis request through the pipeline.
type Request struct {
	Text         string
	VoiceID      string
	Format       Format
	Engine       string
	LanguageCode string
	SampleRate   int
	TextType     string
	// MaxChunkLen overrides the driver default when positive.
	MaxChunkLen int
}

// AudioChunk is the raw audio produced for one text chunk, tagged with the
// ordinal of its source chunk. Ordering is significant: frames must reach
// the assembler in sequence or the output audio is corrupted.
type AudioChunk struct {
	Sequence int
	Data     []byte
	Final    bool
}
