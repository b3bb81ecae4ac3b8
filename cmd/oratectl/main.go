// Command oratectl synthesizes speech to a local file or lists voices.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/oratelabs/orate-core/internal/extract"
	"github.com/oratelabs/orate-core/internal/tts"
)

func main() {
	var (
		text         string
		inputFile    string
		voice        string
		gender       string
		accent       string
		format       string
		engine       string
		languageCode string
		style        string
		sampleRate   int
		output       string
		region       string
		listVoices   bool
	)

	flag.StringVar(&text, "text", "", "Text to synthesize")
	flag.StringVar(&inputFile, "input", "", "Path to a UTF-8 text file or PDF file")
	flag.StringVar(&voice, "voice", "", "Voice id, e.g. Joanna, Matthew")
	flag.StringVar(&gender, "gender", "", "Auto-select a voice by gender (male, female)")
	flag.StringVar(&accent, "accent", "", "Language/accent code, e.g. en-US, en-GB")
	flag.StringVar(&format, "format", "mp3", "Output audio format (mp3, ogg_vorbis, pcm, wav)")
	flag.StringVar(&engine, "engine", "", "Synthesis engine if supported (standard, neural)")
	flag.StringVar(&languageCode, "language-code", "", "Override language code, e.g. en-US")
	flag.StringVar(&style, "style", "", "Speaking style (conversational, newscaster, narration)")
	flag.IntVar(&sampleRate, "sample-rate", 0, "Desired sample rate in Hz, e.g. 16000")
	flag.StringVar(&output, "output", "", "Output audio file path, e.g. out.mp3")
	flag.StringVar(&region, "region", "", "AWS region (defaults to the SDK chain)")
	flag.BoolVar(&listVoices, "list-voices", false, "List available voices and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := tts.NewPollyClient(ctx, region)
	if err != nil {
		fatal(err)
	}
	catalog := tts.NewCatalog(client)

	if listVoices {
		voices, err := catalog.Voices(ctx, firstNonEmpty(accent, languageCode))
		if err != nil {
			fatal(err)
		}
		for _, v := range voices {
			fmt.Printf("%s\t%s\t%s\t%s\n", v.ID, v.Gender, v.LanguageCode, strings.Join(v.SupportedEngines, ","))
		}
		return
	}

	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			fatal(err)
		}
		text, err = extract.Text(inputFile, f)
		f.Close()
		if err != nil {
			fatal(err)
		}
	}
	if strings.TrimSpace(text) == "" {
		fatal(fmt.Errorf("no text provided"))
	}
	if output == "" {
		fatal(fmt.Errorf("-output is required"))
	}

	resolver := tts.NewResolver(catalog, logger)
	voiceID := resolver.ResolveVoice(ctx, voice, gender, firstNonEmpty(accent, languageCode))
	resolvedEngine := resolver.ResolveEngine(ctx, voiceID, engine)

	textType := tts.TextTypePlain
	if style != "" {
		if wrapped, ok := tts.WrapStyle(text, style, firstNonEmpty(accent, languageCode)); ok {
			text = wrapped
			textType = tts.TextTypeSSML
		}
	}

	target := tts.Format(format)
	driverFormat := target
	driverRate := sampleRate
	if target == tts.FormatWAV {
		driverFormat = tts.FormatPCM
		if driverRate <= 0 {
			driverRate = tts.DefaultSampleRate
		}
	}

	if dir := filepath.Dir(output); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		fatal(err)
	}

	driver := tts.NewDriver(client, 0, logger)
	chunks, errs := driver.Synthesize(ctx, tts.Request{
		Text:         text,
		VoiceID:      voiceID,
		Format:       driverFormat,
		Engine:       resolvedEngine,
		LanguageCode: firstNonEmpty(accent, languageCode),
		SampleRate:   driverRate,
		TextType:     textType,
	})

	if err := tts.Assemble(ctx, chunks, errs, target, driverRate, f); err != nil {
		f.Close()
		os.Remove(output)
		fatal(err)
	}
	if err := f.Close(); err != nil {
		fatal(err)
	}
	fmt.Println(output)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "oratectl:", err)
	os.Exit(1)
}
