package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Driver runs the chunked synthesis pipeline against a Client: the text is
// split under the service length limit, then one remote call is issued per
// chunk in strict order. Audio for a chunk is only produced after the
// previous chunk's call has returned, so no reordering buffer is needed;
// latency is additive across chunks by design.
type Driver struct {
	client      Client
	maxChunkLen int
	logger      *slog.Logger
}

func NewDriver(client Client, maxChunkLen int, logger *slog.Logger) *Driver {
	if maxChunkLen <= 0 {
		maxChunkLen = DefaultMaxChunkLen
	}
	return &Driver{
		client:      client,
		maxChunkLen: maxChunkLen,
		logger:      logger.With(slog.String("component", "synthesis-driver")),
	}
}

// Synthesize streams raw audio buffers, one per text chunk, in chunk order.
// Only mp3, ogg_vorbis and pcm may be requested here; wav is a container the
// assembler builds from pcm and is rejected before any remote call. The
// first failed chunk terminates the stream: no partial output is emitted for
// it and no retry is attempted at this layer.
func (d *Driver) Synthesize(ctx context.Context, req Request) (<-chan AudioChunk, <-chan error) {
	chunks := make(chan AudioChunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		switch req.Format {
		case FormatMP3, FormatOGG, FormatPCM:
		default:
			errs <- fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Format)
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			errs <- ErrNoInput
			return
		}

		maxLen := req.MaxChunkLen
		if maxLen <= 0 {
			maxLen = d.maxChunkLen
		}
		parts := SplitText(req.Text, maxLen)
		d.logger.Debug("synthesizing",
			slog.String("voice", req.VoiceID),
			slog.String("format", string(req.Format)),
			slog.Int("chunks", len(parts)))

		for i, part := range parts {
			data, err := d.client.SynthesizeChunk(ctx, ChunkInput{
				Text:         part,
				VoiceID:      req.VoiceID,
				Format:       req.Format,
				Engine:       req.Engine,
				LanguageCode: req.LanguageCode,
				SampleRate:   req.SampleRate,
				TextType:     req.TextType,
			})
			if err != nil {
				errs <- err
				return
			}
			select {
			case chunks <- AudioChunk{Sequence: i, Data: data, Final: i == len(parts)-1}:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return chunks, errs
}
