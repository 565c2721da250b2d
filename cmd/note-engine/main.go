// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the note-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/note-engine/internal/secrets"
	"github.com/pdiddy/note-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the note-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "note-engine",
	Short: "Consolidate heterogeneous notes into cross-referenced Markdown documents",
	Long: `note-engine ingests a directory of heterogeneous note files (Markdown,
plain text, PDFs, images), assigns every note and attachment a stable
content id, and consolidates them into three cross-referenced Markdown
documents: a summary, the raw notes, and the attachments.

Every run validates reference closure and content preservation before
committing; a run that fails validation leaves the previous output
untouched. Use process for a single run, watch for continuous
consolidation, index to maintain the retrieval index, and report to
inspect the last run.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./note-engine.yaml or ~/.config/note-engine/config.yaml)")
	rootCmd.PersistentFlags().String("input", "", "input directory (overrides input_dir)")
	rootCmd.PersistentFlags().String("output", "", "output directory (overrides output_dir)")
}

func initConfig() {
	// .env first so viper's env lookup sees it.
	godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("note-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "note-engine"))
		}
	}

	viper.SetEnvPrefix("NOTE_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("input_dir", "notes")
	viper.SetDefault("output_dir", "out")
	viper.SetDefault("ingest.workers", 4)
	viper.SetDefault("ingest.timeout", 30*time.Second)
	viper.SetDefault("disassemble.backend", string(types.CondenserExcerpt))
	viper.SetDefault("disassemble.min_summary_tokens", 70)
	viper.SetDefault("disassemble.summary_ratio", 0.35)
	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("ai.max_retries", 3)
	viper.SetDefault("ai.timeout", 60*time.Second)
	viper.SetDefault("index.max_results", 20)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the full configuration from viper, root flags,
// and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{
		InputDir:  viper.GetString("input_dir"),
		OutputDir: viper.GetString("output_dir"),
		Ingest: types.IngestConfig{
			Include:          viper.GetStringSlice("ingest.include"),
			Exclude:          viper.GetStringSlice("ingest.exclude"),
			Workers:          viper.GetInt("ingest.workers"),
			Timeout:          viper.GetDuration("ingest.timeout"),
			UnidocLicenseKey: secrets.Resolve(loadedSecrets, secrets.UnidocLicenseKey, "UNIDOC_LICENSE_API_KEY"),
		},
		Disassemble: types.DisassembleConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("ai.model"),
				APIKey:     secrets.Resolve(loadedSecrets, secrets.AnthropicAPIKey, "ANTHROPIC_API_KEY"),
				MaxRetries: viper.GetInt("ai.max_retries"),
				Timeout:    viper.GetDuration("ai.timeout"),
			},
			Backend:          types.CondenserBackend(viper.GetString("disassemble.backend")),
			MinSummaryTokens: viper.GetInt("disassemble.min_summary_tokens"),
			SummaryRatio:     viper.GetFloat64("disassemble.summary_ratio"),
		},
		Index: types.IndexConfig{
			Dir:        viper.GetString("index.dir"),
			MaxResults: viper.GetInt("index.max_results"),
		},
	}

	if in, _ := rootCmd.PersistentFlags().GetString("input"); in != "" {
		cfg.InputDir = in
	}
	if out, _ := rootCmd.PersistentFlags().GetString("output"); out != "" {
		cfg.OutputDir = out
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = filepath.Join(cfg.OutputDir, "index")
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
