package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func feed(t *testing.T, buffers [][]byte, failure error) (<-chan AudioChunk, <-chan error) {
	t.Helper()
	chunks := make(chan AudioChunk, len(buffers))
	errs := make(chan error, 1)
	for i, b := range buffers {
		chunks <- AudioChunk{Sequence: i, Data: b, Final: failure == nil && i == len(buffers)-1}
	}
	if failure != nil {
		errs <- failure
	}
	close(chunks)
	close(errs)
	return chunks, errs
}

func TestAssemblePassThroughConcatenatesInOrder(t *testing.T) {
	chunks, errs := feed(t, [][]byte{[]byte("first-"), []byte("second-"), []byte("third")}, nil)
	var out bytes.Buffer
	if err := Assemble(context.Background(), chunks, errs, FormatMP3, 0, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "first-second-third" {
		t.Fatalf("unexpected assembly: %q", out.String())
	}
}

func TestAssemblePropagatesFailure(t *testing.T) {
	boom := errors.New("upstream exploded")
	chunks, errs := feed(t, [][]byte{[]byte("partial")}, boom)
	var out bytes.Buffer
	if err := Assemble(context.Background(), chunks, errs, FormatPCM, 0, &out); !errors.Is(err, boom) {
		t.Fatalf("expected upstream failure to surface, got %v", err)
	}
}

func TestAssembleWAVHeader(t *testing.T) {
	// Two PCM buffers of 16-bit silence; the finalized container must declare
	// mono 16-bit at the default rate and account for every sample.
	pcm1 := make([]byte, 320)
	pcm2 := make([]byte, 480)
	chunks, errs := feed(t, [][]byte{pcm1, pcm2}, nil)

	var out bytes.Buffer
	if err := Assemble(context.Background(), chunks, errs, FormatWAV, 0, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data := out.Bytes()
	if len(data) < 44 {
		t.Fatalf("output too short for a wav header: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	if channels := binary.LittleEndian.Uint16(data[22:24]); channels != 1 {
		t.Fatalf("expected mono, got %d channels", channels)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != DefaultSampleRate {
		t.Fatalf("expected default sample rate %d, got %d", DefaultSampleRate, rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Fatalf("expected 16-bit samples, got %d", bits)
	}
	// The data chunk must carry both buffers in full.
	idx := bytes.Index(data, []byte("data"))
	if idx < 0 {
		t.Fatalf("missing data chunk")
	}
	if size := binary.LittleEndian.Uint32(data[idx+4 : idx+8]); size != uint32(len(pcm1)+len(pcm2)) {
		t.Fatalf("declared data size %d, want %d", size, len(pcm1)+len(pcm2))
	}
}

func TestAssembleWAVCustomRate(t *testing.T) {
	chunks, errs := feed(t, [][]byte{make([]byte, 64)}, nil)
	var out bytes.Buffer
	if err := Assemble(context.Background(), chunks, errs, FormatWAV, 22050, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := out.Bytes()
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 22050 {
		t.Fatalf("expected 22050 Hz, got %d", rate)
	}
}

func TestAssembleWAVEmitsNothingOnFailure(t *testing.T) {
	boom := errors.New("upstream exploded")
	chunks, errs := feed(t, [][]byte{make([]byte, 64)}, boom)
	var out bytes.Buffer
	if err := Assemble(context.Background(), chunks, errs, FormatWAV, 0, &out); !errors.Is(err, boom) {
		t.Fatalf("expected upstream failure to surface, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("failed wav assembly must not emit partial container bytes, wrote %d", out.Len())
	}
}

func TestPCMIntBufferDecodesFrames(t *testing.T) {
	pcm := []byte{0x34, 0x12, 0xff, 0x7f, 0x00, 0x80}
	buf := pcmIntBuffer(pcm, DefaultSampleRate)
	want := []int{0x1234, 32767, -32768}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i, w := range want {
		if buf.Data[i] != w {
			t.Fatalf("sample %d: got %d, want %d", i, buf.Data[i], w)
		}
	}
	if buf.SourceBitDepth != 16 || buf.Format.NumChannels != 1 {
		t.Fatalf("unexpected buffer format: %+v", buf)
	}

	// A trailing odd byte is half a frame and must be dropped, not decoded.
	odd := pcmIntBuffer(append(pcm, 0xaa), DefaultSampleRate)
	if len(odd.Data) != len(want) {
		t.Fatalf("expected trailing odd byte dropped, got %d samples", len(odd.Data))
	}
}

func TestSeekBuffer(t *testing.T) {
	var b seekBuffer
	if _, err := b.Write([]byte("abcdef")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Seek(1, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := b.Write([]byte("XY")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := string(b.Bytes()); got != "aXYdef" {
		t.Fatalf("unexpected buffer contents %q", got)
	}
}
