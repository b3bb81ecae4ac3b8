package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// fakeClient serves scripted listings and records calls.
type fakeClient struct {
	byLanguage map[string][]Voice
	listErr    error
	synthErr   error
	listCalls  []string
	synthCalls []ChunkInput
	synthData  func(in ChunkInput) []byte
}

func (f *fakeClient) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	f.listCalls = append(f.listCalls, languageCode)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byLanguage[languageCode], nil
}

func (f *fakeClient) SynthesizeChunk(ctx context.Context, in ChunkInput) ([]byte, error) {
	f.synthCalls = append(f.synthCalls, in)
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	if f.synthData != nil {
		return f.synthData(in), nil
	}
	return []byte(in.Text), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestResolver(client Client) *Resolver {
	return NewResolver(NewCatalog(client), testLogger())
}

func TestResolveVoicePreferredIDPassesThrough(t *testing.T) {
	r := newTestResolver(&fakeClient{listErr: errors.New("catalog down")})
	if got := r.ResolveVoice(context.Background(), "Brian", "female", "en-GB"); got != "Brian" {
		t.Fatalf("preferred id must pass through unvalidated, got %q", got)
	}
}

func TestResolveVoicePrefersNeural(t *testing.T) {
	client := &fakeClient{byLanguage: map[string][]Voice{
		"en-US": {
			{ID: "Standard1", Gender: "Female", LanguageCode: "en-US", SupportedEngines: []string{"standard"}},
			{ID: "Neural1", Gender: "Female", LanguageCode: "en-US", SupportedEngines: []string{"standard", "neural"}},
		},
	}}
	r := newTestResolver(client)
	if got := r.ResolveVoice(context.Background(), "", "", "en-US"); got != "Neural1" {
		t.Fatalf("expected the neural-capable voice, got %q", got)
	}
}

func TestResolveVoiceGenderFilterCaseInsensitive(t *testing.T) {
	client := &fakeClient{byLanguage: map[string][]Voice{
		"en-US": {
			{ID: "Him", Gender: "Male", LanguageCode: "en-US"},
			{ID: "Her", Gender: "Female", LanguageCode: "en-US"},
		},
	}}
	r := newTestResolver(client)
	if got := r.ResolveVoice(context.Background(), "", "FEMALE", "en-US"); got != "Her" {
		t.Fatalf("expected gender match, got %q", got)
	}
}

func TestResolveVoiceGlobalFallbackKeepsGenderOnly(t *testing.T) {
	// No voices exist for the requested language. The fallback refetches the
	// global catalog and re-applies only the gender filter: the language
	// filter is deliberately dropped.
	client := &fakeClient{byLanguage: map[string][]Voice{
		"": {
			{ID: "GlobalHim", Gender: "Male", LanguageCode: "fr-FR"},
			{ID: "GlobalHer", Gender: "Female", LanguageCode: "de-DE"},
		},
	}}
	r := newTestResolver(client)
	got := r.ResolveVoice(context.Background(), "", "female", "sw-KE")
	if got != "GlobalHer" {
		t.Fatalf("expected gender-only fallback from global catalog, got %q", got)
	}
	if len(client.listCalls) != 2 || client.listCalls[0] != "sw-KE" || client.listCalls[1] != "" {
		t.Fatalf("expected language-filtered then global listing, got %v", client.listCalls)
	}
}

func TestResolveVoiceFirstCandidateWithoutNeural(t *testing.T) {
	client := &fakeClient{byLanguage: map[string][]Voice{
		"en-AU": {
			{ID: "First", Gender: "Female", LanguageCode: "en-AU", SupportedEngines: []string{"standard"}},
			{ID: "Second", Gender: "Female", LanguageCode: "en-AU", SupportedEngines: []string{"standard"}},
		},
	}}
	r := newTestResolver(client)
	if got := r.ResolveVoice(context.Background(), "", "", "en-AU"); got != "First" {
		t.Fatalf("expected catalog order to win, got %q", got)
	}
}

func TestResolveVoiceDefaultsWhenCatalogEmpty(t *testing.T) {
	r := newTestResolver(&fakeClient{byLanguage: map[string][]Voice{}})
	if got := r.ResolveVoice(context.Background(), "", "", ""); got != DefaultVoiceID {
		t.Fatalf("expected default voice, got %q", got)
	}
}

func TestResolveVoiceDefaultsOnCatalogError(t *testing.T) {
	r := newTestResolver(&fakeClient{listErr: errors.New("listing down")})
	if got := r.ResolveVoice(context.Background(), "", "male", "en-US"); got != DefaultVoiceID {
		t.Fatalf("catalog failure must degrade to the default voice, got %q", got)
	}
}

func TestResolveEngine(t *testing.T) {
	client := &fakeClient{byLanguage: map[string][]Voice{
		"": {
			{ID: "NoEngines", SupportedEngines: nil},
			{ID: "NeuralOnly", SupportedEngines: []string{"neural"}},
			{ID: "StandardOnly", SupportedEngines: []string{"standard"}},
			{ID: "Both", SupportedEngines: []string{"standard", "neural"}},
			{ID: "LongForm", SupportedEngines: []string{"long-form"}},
		},
	}}
	r := newTestResolver(client)
	ctx := context.Background()

	cases := []struct {
		name      string
		voiceID   string
		requested string
		want      string
	}{
		{"empty engine set yields none", "NoEngines", "neural", ""},
		{"empty engine set without request", "NoEngines", "", ""},
		{"supported request passes", "Both", "standard", "standard"},
		{"unsupported request upgraded to neural", "NeuralOnly", "standard", "neural"},
		{"unsupported request downgraded to standard", "StandardOnly", "neural", "standard"},
		{"no request prefers neural", "Both", "", "neural"},
		{"no request falls back to standard", "StandardOnly", "", "standard"},
		{"no tier supported yields none", "LongForm", "whisper", ""},
		{"unknown voice passes request through", "Ghost", "neural", "neural"},
	}
	for _, tc := range cases {
		if got := r.ResolveEngine(ctx, tc.voiceID, tc.requested); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolveEngineCatalogErrorReturnsRequested(t *testing.T) {
	r := newTestResolver(&fakeClient{listErr: errors.New("listing down")})
	if got := r.ResolveEngine(context.Background(), "Joanna", "neural"); got != "neural" {
		t.Fatalf("catalog failure must pass the requested engine through, got %q", got)
	}
	if got := r.ResolveEngine(context.Background(), "Joanna", ""); got != "" {
		t.Fatalf("catalog failure with no request must stay empty, got %q", got)
	}
}
