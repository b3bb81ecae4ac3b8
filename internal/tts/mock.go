package tts

import (
	"context"
	"strings"
)

// mockClient serves a small fixed catalog and synthesizes silence. It backs
// mode "mock" so the full pipeline runs without credentials or network.
type mockClient struct {
	voices []Voice
}

func NewMockClient() Client {
	return &mockClient{
		voices: []Voice{
			{ID: "Joanna", Name: "Joanna", Gender: "Female", LanguageCode: "en-US", SupportedEngines: []string{EngineNeural, EngineStandard}},
			{ID: "Matthew", Name: "Matthew", Gender: "Male", LanguageCode: "en-US", SupportedEngines: []string{EngineNeural, EngineStandard}},
			{ID: "Amy", Name: "Amy", Gender: "Female", LanguageCode: "en-GB", SupportedEngines: []string{EngineStandard}},
		},
	}
}

func (m *mockClient) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	if languageCode == "" {
		return m.voices, nil
	}
	var filtered []Voice
	for _, v := range m.voices {
		if strings.EqualFold(v.LanguageCode, languageCode) {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

func (m *mockClient) SynthesizeChunk(ctx context.Context, in ChunkInput) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	// Roughly 40ms of silence per character keeps output length proportional
	// to input length, which is enough for exercising the assembler.
	sampleRate := in.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	samplesPerChar := sampleRate / 25
	return make([]byte, 2*samplesPerChar*len(in.Text)), nil
}
