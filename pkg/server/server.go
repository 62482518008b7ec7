package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	reporthandler "github.com/ct-tools/cloudscope/pkg/handlers/report"
	wizardhandler "github.com/ct-tools/cloudscope/pkg/handlers/wizard"
	cloudscopemiddleware "github.com/ct-tools/cloudscope/pkg/server/middleware"
	"github.com/ct-tools/cloudscope/pkg/services/account"
	"github.com/ct-tools/cloudscope/pkg/services/lifecycle"
	"github.com/ct-tools/cloudscope/pkg/services/registry"
	"github.com/ct-tools/cloudscope/pkg/services/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server

	shutdownTimeout time.Duration
}

type Dependencies struct {
	Logger    zerolog.Logger
	Sessions  *wizard.Manager
	Accounts  *account.Registry
	Generator lifecycle.Controller
	Profiles  registry.Registry
	Reports   reporthandler.Service

	// FilesDir is the local artifact directory served under
	// /api/v1/reports/files. Empty when artifacts live in object
	// storage.
	FilesDir string
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	sessions := wizardhandler.NewHandler(deps.Sessions, deps.Accounts, deps.Generator, deps.Profiles)
	reports := reporthandler.NewHandler(deps.Reports, deps.FilesDir)

	router := chi.NewRouter()
	router.Use(cloudscopemiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.CreateSession)
			r.Route("/{session}", func(r chi.Router) {
				r.Get("/", sessions.GetSession)
				r.Delete("/", sessions.DeleteSession)
				r.Post("/report-type", sessions.SetReportType)
				r.Post("/provider", sessions.SetProvider)
				r.Post("/credentials", sessions.SubmitCredentials)
				r.Get("/resources", sessions.ListResources)
				r.Post("/resources", sessions.SelectResources)
				r.Post("/timeframe", sessions.SetTimeframe)
				r.Post("/frequency", sessions.SetFrequency)
				r.Post("/format", sessions.SetFormat)
				r.Post("/delivery", sessions.SetDelivery)
				r.Post("/next", sessions.NextStep)
				r.Post("/prev", sessions.PrevStep)
				r.Post("/reset", sessions.Reset)
				r.Post("/generate", sessions.Generate)
				r.Get("/generation", sessions.GenerationStatus)
				r.Post("/generation/cancel", sessions.CancelGeneration)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/utilization", reports.GenerateUtilization)
			r.Post("/billing", reports.GenerateBilling)
			r.Get("/", reports.History)
			r.Get("/stats", reports.Stats)
			r.Get("/{report}/status", reports.GetStatus)
			r.Get("/files/{file}", reports.Download)
		})
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
		shutdownTimeout: timeout,
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
