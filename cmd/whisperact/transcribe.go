package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/models"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/pipeline"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/storage"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/whisper"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [SOURCE] [MODEL]",
	Short: "Transcribe one audio source with the named model",
	Example: `  # Transcribe a local file with the small model
  whisperact transcribe recording.mp3 small

  # Transcribe a remote file
  whisperact transcribe https://example.com/talk.mp3 base

  # Transcribe a YouTube video
  whisperact transcribe "https://www.youtube.com/watch?v=dQw4w9WgXcQ" large-v3-turbo`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, model := args[0], args[1]
		if !whisper.IsValidModel(model) {
			return fmt.Errorf("unknown model %q, valid models: %v", model, whisper.ValidModels)
		}

		applyTranscribeFlags(cmd)

		db, err := storage.Open(cfg.Paths.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := storage.NewRunRepository(db)

		ctx := cmd.Context()
		run := &models.Run{Source: source, Model: model}
		if err := repo.Create(ctx, run); err != nil {
			return err
		}
		if err := repo.Start(ctx, run.ID); err != nil {
			return err
		}

		p := pipeline.New(cfg)
		result, err := p.Run(ctx, source, model)
		if err != nil {
			_ = repo.Fail(ctx, run.ID, err.Error())
			return err
		}
		if err := repo.Complete(ctx, run.ID, result.ChunkCount, result.TranscriptPath, result.SubtitlePath); err != nil {
			return err
		}

		fmt.Printf("Transcribed %s (%s) in %s using %d chunk(s)\n",
			source, result.AudioDuration.Round(time.Second), result.Elapsed.Round(time.Second), result.ChunkCount)
		fmt.Printf("Transcript: %s\n", result.TranscriptPath)
		if result.SubtitlePath != "" {
			fmt.Printf("Subtitles:  %s\n", result.SubtitlePath)
		}
		return nil
	},
}

func applyTranscribeFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("language"); v != "" {
		cfg.Whisper.Language = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-seconds"); v > 0 {
		cfg.Pipeline.ChunkSeconds = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.Pipeline.Concurrency = v
	}
	if v, _ := cmd.Flags().GetString("workdir"); v != "" {
		cfg.Paths.WorkDir = v
	}
	if v, _ := cmd.Flags().GetString("binary"); v != "" {
		cfg.Whisper.BinaryPath = v
	}
	if noSRT, _ := cmd.Flags().GetBool("no-srt"); noSRT {
		cfg.Whisper.EmitSRT = false
	}
}

func init() {
	transcribeCmd.Flags().StringP("language", "l", "", "target language code (default from config)")
	transcribeCmd.Flags().Int("chunk-seconds", 0, "chunk length in seconds (default from config)")
	transcribeCmd.Flags().Int("concurrency", 0, "number of chunks transcribed in parallel")
	transcribeCmd.Flags().String("workdir", "", "working directory for intermediate files")
	transcribeCmd.Flags().String("binary", "", "path to the whisper-cli binary")
	transcribeCmd.Flags().Bool("no-srt", false, "skip SRT subtitle output")
	rootCmd.AddCommand(transcribeCmd)
}
