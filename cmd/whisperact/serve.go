package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/handlers"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/metrics"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/pipeline"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/version"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with a background transcription worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(cfg.Paths.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := storage.NewRunRepository(db)
		met := metrics.NewMetrics()
		p := pipeline.New(cfg)

		handler := func(ctx context.Context, run *models.Run) (worker.RunOutput, error) {
			result, err := p.Run(ctx, run.Source, run.Model)
			if err != nil {
				return worker.RunOutput{}, err
			}
			return worker.RunOutput{
				ChunkCount:     result.ChunkCount,
				TranscriptPath: result.TranscriptPath,
				SubtitlePath:   result.SubtitlePath,
			}, nil
		}

		w := worker.NewWorker(repo, handler, met)
		w.SetInterval(cfg.Server.PollInterval())
		w.Start(cmd.Context())
		defer w.Stop()

		e := echo.New()
		e.HideBanner = true
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())

		runs := handlers.NewRunHandler(repo, w)
		health := handlers.NewHealthHandler(cfg.Paths.ModelsDir)

		e.GET("/health", health.Health)
		e.GET("/api/models", health.Models)
		e.POST("/api/runs", runs.Submit)
		e.GET("/api/runs", runs.List)
		e.GET("/api/runs/stats", runs.Stats)
		e.GET("/api/runs/:id", runs.Get)
		e.GET("/api/runs/:id/transcript", runs.Transcript)
		e.GET("/api/runs/:id/subtitles", runs.Subtitles)
		e.POST("/api/runs/:id/retry", runs.Retry)
		e.DELETE("/api/runs/:id", runs.Delete)
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

		log.Printf("Starting whisperact v%s on port %d", version.Version, cfg.Server.Port)
		return e.Start(fmt.Sprintf(":%d", cfg.Server.Port))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
