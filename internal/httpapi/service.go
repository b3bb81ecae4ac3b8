// Package httpapi exposes the synthesis pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oratelabs/orate-core/internal/config"
	"github.com/oratelabs/orate-core/internal/extract"
	"github.com/oratelabs/orate-core/internal/requestlog"
	"github.com/oratelabs/orate-core/internal/translate"
	"github.com/oratelabs/orate-core/internal/tts"
)

const maxUploadBytes = 32 << 20

// Service wires the voice catalog, resolver, driver and collaborators into
// the HTTP surface. Each request owns its own pipeline run; the catalog cache
// is the only shared structure.
type Service struct {
	cfg        config.Config
	catalog    *tts.Catalog
	resolver   *tts.Resolver
	driver     *tts.Driver
	translator translate.Translator
	store      *requestlog.Store
	logger     *slog.Logger
}

func New(cfg config.Config, catalog *tts.Catalog, resolver *tts.Resolver, driver *tts.Driver, translator translate.Translator, store *requestlog.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:        cfg,
		catalog:    catalog,
		resolver:   resolver,
		driver:     driver,
		translator: translator,
		store:      store,
		logger:     logger.With(slog.String("component", "httpapi")),
	}
}

// Register mounts the API handlers on mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.Handle("/voices", s.withCORS(http.HandlerFunc(s.handleVoices)))
	mux.Handle("/synthesize", s.withCORS(http.HandlerFunc(s.handleSynthesize)))
}

func (s *Service) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type voicePayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Gender       string   `json:"gender"`
	LanguageCode string   `json:"language_code"`
	Engines      []string `json:"engines"`
}

func (s *Service) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	voices, err := s.catalog.Voices(r.Context(), r.URL.Query().Get("language_code"))
	if err != nil {
		s.logger.Error("voice listing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	payload := make([]voicePayload, 0, len(voices))
	for _, v := range voices {
		payload = append(payload, voicePayload{
			ID:           v.ID,
			Name:         v.Name,
			Gender:       v.Gender,
			LanguageCode: v.LanguageCode,
			Engines:      v.SupportedEngines,
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Service) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	text, err := s.readText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "No text provided.")
		return
	}

	format := tts.Format(r.FormValue("format"))
	if format == "" {
		format = tts.FormatMP3
	}
	switch format {
	case tts.FormatMP3, tts.FormatOGG, tts.FormatPCM, tts.FormatWAV:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported output format %q", format))
		return
	}

	srcLang := r.FormValue("src_lang")
	dstLang := r.FormValue("dst_lang")
	sampleRate, _ := strconv.Atoi(r.FormValue("sample_rate"))

	s.logger.Info("synthesis request",
		slog.String("src_lang", srcLang),
		slog.String("dst_lang", dstLang),
		slog.String("voice", r.FormValue("voice")),
		slog.String("gender", r.FormValue("gender")),
		slog.String("format", string(format)),
		slog.String("engine", r.FormValue("engine")))

	translated := false
	if srcLang != "" && dstLang != "" && srcLang != dstLang {
		if s.translator == nil {
			writeError(w, http.StatusInternalServerError, "translation not configured")
			return
		}
		out, err := s.translator.Translate(r.Context(), text, srcLang, dstLang)
		if err != nil {
			s.logger.Error("translation failed", slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("Translation failed: %v", err))
			return
		}
		text = out
		translated = true
	}

	languageCode := firstNonEmpty(dstLang, r.FormValue("accent"), r.FormValue("language_code"))
	voiceID := s.resolver.ResolveVoice(r.Context(), r.FormValue("voice"), r.FormValue("gender"), languageCode)
	engine := s.resolver.ResolveEngine(r.Context(), voiceID, r.FormValue("engine"))

	textType := tts.TextTypePlain
	if style := r.FormValue("style"); style != "" {
		if wrapped, ok := tts.WrapStyle(text, style, languageCode); ok {
			text = wrapped
			textType = tts.TextTypeSSML
		}
	}

	requestID := uuid.NewString()
	chunkCount := len(tts.SplitText(text, s.cfg.TTS.MaxChunkLen))
	s.logRequest(r.Context(), requestlog.Record{
		RequestID:  requestID,
		VoiceID:    voiceID,
		Engine:     engine,
		Format:     string(format),
		Translated: translated,
		TextLen:    len(text),
		ChunkCount: chunkCount,
	})

	// The driver only speaks raw formats; wav is assembled locally from pcm.
	driverFormat := format
	driverRate := sampleRate
	if format == tts.FormatWAV {
		driverFormat = tts.FormatPCM
		if driverRate <= 0 {
			driverRate = tts.DefaultSampleRate
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.TTS.SynthTimeout)*time.Millisecond)
	defer cancel()

	chunks, errs := s.driver.Synthesize(ctx, tts.Request{
		Text:         text,
		VoiceID:      voiceID,
		Format:       driverFormat,
		Engine:       engine,
		LanguageCode: languageCode,
		SampleRate:   driverRate,
		TextType:     textType,
		MaxChunkLen:  s.cfg.TTS.MaxChunkLen,
	})

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=speech_output.%s", format))
	w.Header().Set("X-Voice-Id", voiceID)
	w.Header().Set("X-Translated", strconv.FormatBool(translated))
	w.Header().Set("X-Src-Lang", srcLang)
	w.Header().Set("X-Dst-Lang", dstLang)

	sink := &flushWriter{w: w}
	if err := tts.Assemble(ctx, chunks, errs, format, driverRate, sink); err != nil {
		s.logger.Error("synthesis failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		s.updateStatus(requestID, requestlog.StatusFailed, chunkCount)
		// Headers may already be on the wire; only report when nothing was.
		if sink.written == 0 {
			status := http.StatusBadGateway
			if errors.Is(err, tts.ErrUnsupportedFormat) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err.Error())
		}
		return
	}
	s.updateStatus(requestID, requestlog.StatusCompleted, chunkCount)
}

func (s *Service) readText(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", fmt.Errorf("parse form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}

	text := r.FormValue("text")
	if text != "" || r.MultipartForm == nil {
		return text, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return text, nil
		}
		return "", fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()
	return extract.Text(header.Filename, file)
}

func (s *Service) logRequest(ctx context.Context, rec requestlog.Record) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendRequest(ctx, rec); err != nil {
		s.logger.Warn("request log append failed", slog.String("error", err.Error()))
	}
}

func (s *Service) updateStatus(requestID, status string, chunkCount int) {
	if s.store == nil {
		return
	}
	// The request context may already be cancelled by a client disconnect.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.UpdateStatus(ctx, requestID, status, chunkCount); err != nil {
		s.logger.Warn("request log update failed", slog.String("error", err.Error()))
	}
}

func contentType(format tts.Format) string {
	switch format {
	case tts.FormatMP3:
		return "audio/mpeg"
	case tts.FormatOGG:
		return "audio/ogg"
	case tts.FormatPCM:
		return "audio/L16"
	case tts.FormatWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// flushWriter flushes after every write so clients receive audio
// incrementally as chunks complete.
type flushWriter struct {
	w       http.ResponseWriter
	written int64
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.written += int64(n)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}
