package protocol

import "time"

// SynthesisRequest asks the speech service to voice a piece of text.
type SynthesisRequest struct {
	SessionID    string `json:"session_id"`
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id,omitempty"`
	Gender       string `json:"gender,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Engine       string `json:"engine,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
}

// AudioChunk carries one ordered frame of synthesized PCM on the bus.
type AudioChunk struct {
	SessionID  string `json:"session_id"`
	Sequence   int    `json:"sequence"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	PCM        []byte `json:"pcm"`
	Final      bool   `json:"final"`
}

// SynthesisStatus marks completion or failure of a bus synthesis request.
type SynthesisStatus struct {
	SessionID string    `json:"session_id"`
	VoiceID   string    `json:"voice_id,omitempty"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSynthesizeRequest = "speech.synthesize.request"
	SubjectSynthesizeAudio   = "speech.synthesize.audio"
	SubjectSynthesizeDone    = "speech.synthesize.done"
)
