package tts

import "fmt"

var styleDomains = map[string]string{
	"conversational": "conversational",
	"newscaster":     "news",
	"narration":      "narration",
}

// WrapStyle wraps plain text in SSML applying a speaking-style domain.
// Styles require neural-capable voices. Unknown styles return the text
// unchanged with ok=false.
func WrapStyle(text, style, languageCode string) (ssml string, ok bool) {
	domain, ok := styleDomains[style]
	if !ok {
		return text, false
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return fmt.Sprintf(`<speak><lang xml:lang=%q><amazon:domain name=%q>%s</amazon:domain></lang></speak>`,
		languageCode, domain, text), true
}
