package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/config"
	"github.com/Sparkplugx1904/Whisper-CPP-Act/internal/version"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "whisperact",
	Short:   "Transcribe audio with a local whisper.cpp binary",
	Long: `whisperact drives a pre-built whisper-cli binary to transcribe audio.
It fetches audio from a local path, a direct URL or YouTube, converts it
to 16 kHz mono WAV, splits it into fixed-length chunks and concatenates
the per-chunk transcripts in order.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		return err
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
