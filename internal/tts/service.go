package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oratelabs/orate-core/internal/bus"
	"github.com/oratelabs/orate-core/internal/config"
	"github.com/oratelabs/orate-core/internal/protocol"
)

// Service exposes the synthesis pipeline over the message bus: it subscribes
// to synthesis requests and streams ordered PCM chunk frames back, so
// assistant-style consumers get audio without going through HTTP.
type Service struct {
	cfg      config.TTSConfig
	bus      *bus.Client
	resolver *Resolver
	driver   *Driver
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *slog.Logger
}

func NewService(parent context.Context, cfg config.TTSConfig, busClient *bus.Client, resolver *Resolver, driver *Driver, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		cfg:      cfg,
		bus:      busClient,
		resolver: resolver,
		driver:   driver,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With(slog.String("component", "speech-service")),
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthesizeRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SynthesisRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode synthesis request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, time.Duration(s.cfg.SynthTimeout)*time.Millisecond)
		defer cancel()

		voiceID := s.resolver.ResolveVoice(ctx, req.VoiceID, req.Gender, req.LanguageCode)
		engine := s.resolver.ResolveEngine(ctx, voiceID, req.Engine)
		sampleRate := req.SampleRate
		if sampleRate <= 0 {
			sampleRate = s.cfg.SampleRate
		}

		chunks, errs := s.driver.Synthesize(ctx, Request{
			Text:         req.Text,
			VoiceID:      voiceID,
			Format:       FormatPCM,
			Engine:       engine,
			LanguageCode: req.LanguageCode,
			SampleRate:   sampleRate,
			TextType:     TextTypePlain,
		})
		for {
			select {
			case chunk, ok := <-chunks:
				if !ok {
					chunks = nil
					continue
				}
				s.publishChunk(req, voiceID, sampleRate, chunk)
			case err, ok := <-errs:
				if ok && err != nil {
					s.logger.Warn("synthesis failed", slogError(err))
					s.publishStatus(req, voiceID, false, err)
				}
				errs = nil
			case <-ctx.Done():
				s.logger.Warn("synthesis cancelled", slogError(ctx.Err()))
				return
			}
			if chunks == nil && errs == nil {
				return
			}
		}
	}()
}

func (s *Service) publishChunk(req protocol.SynthesisRequest, voiceID string, sampleRate int, chunk AudioChunk) {
	frame := protocol.AudioChunk{
		SessionID:  req.SessionID,
		Sequence:   chunk.Sequence,
		SampleRate: sampleRate,
		Channels:   1,
		PCM:        chunk.Data,
		Final:      chunk.Final,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Warn("failed to marshal audio chunk", slogError(err))
		return
	}
	if err := s.bus.Conn().Publish(protocol.SubjectSynthesizeAudio, data); err != nil {
		s.logger.Warn("failed to publish audio chunk", slogError(err))
	}
	if chunk.Final {
		s.publishStatus(req, voiceID, true, nil)
	}
}

func (s *Service) publishStatus(req protocol.SynthesisRequest, voiceID string, completed bool, cause error) {
	status := protocol.SynthesisStatus{
		SessionID: req.SessionID,
		VoiceID:   voiceID,
		Completed: completed,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		status.Error = cause.Error()
	}
	if data, err := json.Marshal(status); err == nil {
		_ = s.bus.Conn().Publish(protocol.SubjectSynthesizeDone, data)
	}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
