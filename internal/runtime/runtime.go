package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oratelabs/orate-core/internal/bus"
	"github.com/oratelabs/orate-core/internal/config"
	"github.com/oratelabs/orate-core/internal/httpapi"
	"github.com/oratelabs/orate-core/internal/natsserver"
	"github.com/oratelabs/orate-core/internal/requestlog"
	"github.com/oratelabs/orate-core/internal/translate"
	"github.com/oratelabs/orate-core/internal/tts"
)

// Runtime owns the process lifecycle: telemetry, the request log, the
// synthesis pipeline, the HTTP surface and the optional bus surface.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	store, err := requestlog.Open(ctx, r.cfg.RequestLog, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open request log: %w", err)
	}
	defer store.Close()

	client, err := r.newClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	catalog := tts.NewCatalog(client)
	resolver := tts.NewResolver(catalog, r.logger)
	driver := tts.NewDriver(client, r.cfg.TTS.MaxChunkLen, r.logger)

	var translator translate.Translator
	if r.cfg.Translate.APIKey != "" {
		translator = translate.NewGoogle(r.cfg.Translate.Endpoint, r.cfg.Translate.APIKey)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	api := httpapi.New(r.cfg, catalog, resolver, driver, translator, store, r.logger)
	api.Register(mux)

	if r.cfg.Bus.Enabled {
		embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		defer embedded.Shutdown()

		busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
		defer busClient.Close()

		speech := tts.NewService(ctx, r.cfg.TTS, busClient, resolver, driver, r.logger)
		if err := speech.Start(); err != nil {
			return fmt.Errorf("failed to start bus speech service: %w", err)
		}
		defer speech.Close()
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started", slog.String("addr", addr), slog.String("tts_mode", r.cfg.TTS.Mode))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) newClient(ctx context.Context) (tts.Client, error) {
	switch r.cfg.TTS.Mode {
	case "exec":
		return tts.NewExecClient(r.cfg.TTS.Command, r.cfg.TTS.DefaultVoice, r.cfg.TTS.SampleRate)
	case "mock":
		return tts.NewMockClient(), nil
	default:
		return tts.NewPollyClient(ctx, r.cfg.TTS.Region)
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
