package tts

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultVoiceID is the last-resort voice when the catalog yields nothing.
const DefaultVoiceID = "Joanna"

// Engine quality tiers offered by the remote service.
const (
	EngineNeural   = "neural"
	EngineStandard = "standard"
)

// Resolver turns caller hints (voice id, gender, language) into a concrete
// voice and a compatible engine. Resolution is deliberately lenient: catalog
// failures degrade to pass-through of the caller's hints instead of failing
// the request, since a mis-resolved voice should not block best-effort
// synthesis.
type Resolver struct {
	catalog *Catalog
	logger  *slog.Logger
}

func NewResolver(catalog *Catalog, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		logger:  logger.With(slog.String("component", "voice-resolver")),
	}
}

// ResolveVoice returns a voice id for the given hints. An explicit
// preferredID is trusted and returned unchanged without catalog validation.
// Otherwise candidates are drawn from the language-filtered catalog, narrowed
// by gender; if that yields nothing the global catalog is refetched and only
// the gender filter is re-applied. Language-specific voices may not exist but
// gender-specific voices usually do globally, hence the asymmetry. Voices
// supporting the neural engine win over catalog order.
func (r *Resolver) ResolveVoice(ctx context.Context, preferredID, gender, languageCode string) string {
	if preferredID != "" {
		return preferredID
	}

	voices, err := r.catalog.Voices(ctx, languageCode)
	if err != nil {
		r.logger.Warn("voice listing failed, using default voice", slog.String("error", err.Error()))
		voices = nil
	}
	voices = filterGender(voices, gender)

	if len(voices) == 0 {
		global, err := r.catalog.Voices(ctx, "")
		if err != nil {
			r.logger.Warn("global voice listing failed, using default voice", slog.String("error", err.Error()))
		} else {
			voices = filterGender(global, gender)
		}
	}

	for _, v := range voices {
		if v.SupportsEngine(EngineNeural) {
			return v.ID
		}
	}
	if len(voices) > 0 {
		return voices[0].ID
	}
	return DefaultVoiceID
}

// ResolveEngine returns an engine compatible with the voice. An empty result
// means no engine parameter: the service default applies. A requested engine
// the voice does not support is silently substituted with the best supported
// tier (neural, then standard). Any catalog failure falls back to returning
// the requested engine unmodified so resolution never blocks synthesis.
func (r *Resolver) ResolveEngine(ctx context.Context, voiceID, requested string) string {
	voices, err := r.catalog.Voices(ctx, "")
	if err != nil {
		r.logger.Warn("engine resolution degraded to caller hint", slog.String("error", err.Error()))
		return requested
	}

	var voice *Voice
	for i := range voices {
		if voices[i].ID == voiceID {
			voice = &voices[i]
			break
		}
	}
	if voice == nil {
		return requested
	}
	if len(voice.SupportedEngines) == 0 {
		return ""
	}
	if requested != "" && voice.SupportsEngine(requested) {
		return requested
	}
	if voice.SupportsEngine(EngineNeural) {
		return EngineNeural
	}
	if voice.SupportsEngine(EngineStandard) {
		return EngineStandard
	}
	return ""
}

func filterGender(voices []Voice, gender string) []Voice {
	g := strings.ToLower(strings.TrimSpace(gender))
	if g == "" {
		return voices
	}
	var filtered []Voice
	for _, v := range voices {
		if strings.ToLower(v.Gender) == g {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
