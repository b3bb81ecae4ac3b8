// Package translate calls the Google Cloud Translation v2 REST API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"
)

// DefaultEndpoint is the Translation v2 REST endpoint.
const DefaultEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// GoogleTranslator is an API-key client for the v2 REST surface.
type GoogleTranslator struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewGoogle(endpoint, apiKey string) *GoogleTranslator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GoogleTranslator{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type googleRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
}

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate converts text into the target language. The result is unescaped:
// the API may return HTML entities, which must not reach the synthesizer.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("translation API key not configured")
	}

	body, err := json.Marshal(googleRequest{Q: text, Source: source, Target: target})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call translation api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("translation api returned status %s", resp.Status)
	}

	var payload googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if len(payload.Data.Translations) == 0 {
		return "", errors.New("translation response contained no translations")
	}
	return html.UnescapeString(payload.Data.Translations[0].TranslatedText), nil
}
