package tts

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultSampleRate applies when a wav target names no rate.
const DefaultSampleRate = 16000

// Assemble drains ordered audio chunks into w. Compressed formats and raw
// pcm pass through by naive ordered concatenation; the wav target wraps pcm
// buffers in a mono 16-bit container. The first error on errs aborts
// assembly and is returned.
func Assemble(ctx context.Context, chunks <-chan AudioChunk, errs <-chan error, format Format, sampleRate int, w io.Writer) error {
	if format == FormatWAV {
		return assembleWAV(ctx, chunks, errs, sampleRate, w)
	}
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				break
			}
			if _, err := w.Write(chunk.Data); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				return err
			}
			errs = nil
		case <-ctx.Done():
			return ctx.Err()
		}
		if chunks == nil && errs == nil {
			return nil
		}
	}
}

func assembleWAV(ctx context.Context, chunks <-chan AudioChunk, errs <-chan error, sampleRate int, w io.Writer) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	// The container header carries the total length, so the encoder needs a
	// seekable sink. Anything else gets an in-memory buffer that is flushed
	// once the header is finalized.
	if ws, ok := w.(io.WriteSeeker); ok {
		return encodeWAV(ctx, chunks, errs, sampleRate, ws)
	}
	var buf seekBuffer
	if err := encodeWAV(ctx, chunks, errs, sampleRate, &buf); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

func encodeWAV(ctx context.Context, chunks <-chan AudioChunk, errs <-chan error, sampleRate int, ws io.WriteSeeker) error {
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				break
			}
			if err := enc.Write(pcmIntBuffer(chunk.Data, sampleRate)); err != nil {
				return fmt.Errorf("write wav frames: %w", err)
			}
		case err, ok := <-errs:
			if ok && err != nil {
				return err
			}
			errs = nil
		case <-ctx.Done():
			return ctx.Err()
		}
		if chunks == nil && errs == nil {
			if err := enc.Close(); err != nil {
				return fmt.Errorf("finalize wav: %w", err)
			}
			return nil
		}
	}
}

// pcmIntBuffer decodes little-endian 16-bit frames. The remote service emits
// whole frames only; a trailing odd byte would be half a sample and is
// dropped rather than decoded as garbage.
func pcmIntBuffer(pcm []byte, sampleRate int) *audio.IntBuffer {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
}

// seekBuffer is a minimal in-memory io.WriteSeeker for header finalization.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}

func (b *seekBuffer) Bytes() []byte { return b.data }
