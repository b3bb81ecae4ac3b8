package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sync"

	shellwords "github.com/mattn/go-shellwords"
)

// execClient shells out to a local synthesizer command for development and
// offline testing. The command receives a JSON request on stdin and writes
// raw audio bytes to stdout.
type execClient struct {
	cmd        []string
	voice      Voice
	sampleRate int
	mu         sync.Mutex
}

type execRequest struct {
	Text         string `json:"text"`
	Voice        string `json:"voice"`
	Format       string `json:"format"`
	SampleRate   int    `json:"sample_rate"`
	LanguageCode string `json:"language_code,omitempty"`
}

// NewExecClient parses command with shell-style quoting and returns a Client
// backed by it. The catalog it reports contains the single configured voice.
func NewExecClient(command, voiceID string, sampleRate int) (Client, error) {
	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse synthesizer command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("synthesizer command empty")
	}
	if voiceID == "" {
		voiceID = "local"
	}
	return &execClient{
		cmd:        args,
		sampleRate: sampleRate,
		voice: Voice{
			ID:           voiceID,
			Name:         voiceID,
			Gender:       "Unspecified",
			LanguageCode: "en-US",
		},
	}, nil
}

func (e *execClient) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	if languageCode != "" && languageCode != e.voice.LanguageCode {
		return nil, nil
	}
	return []Voice{e.voice}, nil
}

func (e *execClient) SynthesizeChunk(ctx context.Context, in ChunkInput) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sampleRate := in.SampleRate
	if sampleRate <= 0 {
		sampleRate = e.sampleRate
	}
	payload, err := json.Marshal(execRequest{
		Text:         in.Text,
		Voice:        in.VoiceID,
		Format:       string(in.Format),
		SampleRate:   sampleRate,
		LanguageCode: in.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &UpstreamError{Op: "run synthesizer command", Err: fmt.Errorf("%w: %s", err, stderr.String())}
	}
	return stdout.Bytes(), nil
}
