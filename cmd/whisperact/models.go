package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/fetch"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/whisper"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage ggml model files",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recognized models and whether they are downloaded",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, m := range whisper.ListModels(cfg.Paths.ModelsDir) {
			mark := " "
			if m.Downloaded {
				mark = "*"
			}
			fmt.Printf("%s %-16s %s\n", mark, m.ID, m.SizeLabel)
		}
		return nil
	},
}

var modelsDownloadCmd = &cobra.Command{
	Use:   "download [MODEL]",
	Short: "Download a model file from Hugging Face if not present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		d := fetch.NewDownloader(cfg.Downloads.Timeout())
		path, err := whisper.EnsureModel(cmd.Context(), d, cfg.Paths.ModelsDir, name)
		if err != nil {
			return err
		}
		fmt.Printf("Model ready: %s\n", path)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDownloadCmd)
	rootCmd.AddCommand(modelsCmd)
}
