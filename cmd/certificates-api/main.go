// main is the entry point of the certificates API.
//
// STARTUP SEQUENCE:
//  1. Load .env (if present) and the YAML configuration
//  2. Initialise the logger
//  3. Connect to (and set up) the SQLite database
//  4. Build the template source, renderer and output sink
//  5. Register all HTTP routes and start the server in a goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives, then shut down
//     gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/certificates-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/certificates-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/aanand-mishra/certificates-api/internal/certificate"
	"github.com/aanand-mishra/certificates-api/internal/cloud"
	"github.com/aanand-mishra/certificates-api/internal/config"
	"github.com/aanand-mishra/certificates-api/internal/http/handlers/certificates"
	"github.com/aanand-mishra/certificates-api/internal/http/handlers/student"
	"github.com/aanand-mishra/certificates-api/internal/logger"
	"github.com/aanand-mishra/certificates-api/internal/output"
	"github.com/aanand-mishra/certificates-api/internal/storage/sqlite"
	"github.com/aanand-mishra/certificates-api/internal/templates"
	"github.com/aanand-mishra/certificates-api/internal/utils/response"
)

const version = "1.1.0"

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", slog.String("error", err.Error()))
	}
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting certificates-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 3. Initialise Storage (Database) ──────────────────────────────────
	storage, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	// ── 4. Template, Renderer, Sink ───────────────────────────────────────
	var s3Client *s3.Client
	if cfg.UsesS3() {
		s3Client, err = cloud.NewS3Client(context.Background(), cfg.AWS)
		if err != nil {
			log.Error("failed to initialise s3 client", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// A nil *s3.Client must not become a non-nil interface value.
	var getter templates.GetObjectAPI
	if s3Client != nil {
		getter = s3Client
	}

	source, err := templates.FromConfig(cfg.Template, getter)
	if err != nil {
		log.Error("failed to configure template source", slog.String("error", err.Error()))
		os.Exit(1)
	}
	renderer := certificate.NewRenderer(templates.Cached(source), log, certificate.DefaultOptions())

	sink, err := output.FromConfig(cfg.Output, s3Client)
	if err != nil {
		log.Error("failed to configure output", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("renderer initialised", slog.String("template_kind", cfg.Template.Kind))

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	//   POST   /api/students                 → create a new student
	//   POST   /api/students/import          → create students from a roster file
	//   GET    /api/students                 → list all students
	//   GET    /api/students/{id}            → get one student by ID
	//   PUT    /api/students/{id}            → update a student
	//   DELETE /api/students/{id}            → delete a student
	//   GET    /api/students/{id}/certificate → single-student certificate PDF
	//   POST   /api/certificates/date        → batch certificates, 3 per page
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(storage))
	router.HandleFunc("POST /api/students/import", student.Import(storage))
	router.HandleFunc("GET /api/students", student.GetList(storage))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(storage))
	router.HandleFunc("PUT /api/students/{id}", student.Update(storage))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(storage))
	router.HandleFunc("GET /api/students/{id}/certificate", certificates.Single(storage, renderer))
	router.HandleFunc("POST /api/certificates/date", certificates.Date(storage, renderer, sink))

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"version":   version,
			"timestamp": time.Now().UTC(),
		})
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed when Shutdown() is
		// called. That's expected — we don't want to log it as an error.
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
