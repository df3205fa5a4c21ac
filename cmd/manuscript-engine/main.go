// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the manuscript-engine CLI.
// Implements: prd001-endpoint-extraction, prd002-endpoint-store,
//             prd003-response-ledger, prd004-conversation,
//             prd005-section-pipeline (CLI surface).
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manuscript-engine/internal/secrets"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, otherwise the secret value
// for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the manuscript-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "manuscript-engine",
	Short: "Staged AI drafting of clinical-trial manuscripts",
	Long: `manuscript-engine orchestrates AI-generated content across the sections of
a clinical-trial manuscript. Endpoints discovered while generating Results are
stored with stable identities and re-surfaced when drafting Methods and
Conclusion; every response is kept in an append-only ledger for citation
provenance, and conversation continuity is tracked per context.

Each operation group is a subcommand: document, extract, endpoint, ask, and
section. The AI question-answering engine is an external service configured
via assistant.base_url.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./manuscript-engine.yaml or ~/.config/manuscript-engine/config.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "state", "directory for the manuscript state database and exports")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("manuscript-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "manuscript-engine"))
		}
	}

	viper.SetEnvPrefix("MANUSCRIPT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// storeConfig builds the store configuration from flags and config file.
func storeConfig(cmd *cobra.Command) types.StoreConfig {
	stateDir, _ := cmd.Flags().GetString("state-dir")
	if stateDir == "" {
		stateDir = viper.GetString("store.state_dir")
	}
	if stateDir == "" {
		stateDir = "state"
	}
	return types.StoreConfig{
		StateDir:   stateDir,
		MaxResults: viper.GetInt("store.max_results"),
	}
}

// pipelineConfig groups the stage configurations for commands that run the
// full drafting pipeline.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	return types.PipelineConfig{
		Store:     storeConfig(cmd),
		Assistant: assistantConfig(),
	}
}

// assistantConfig builds the assistant client configuration from config file
// and secrets.
func assistantConfig() types.AssistantConfig {
	cfg := types.AssistantConfig{
		BaseURL:    secretDefault("assistant-base-url", viper.GetString("assistant.base_url")),
		APIKey:     secretDefault("assistant-api-key", viper.GetString("assistant.api_key")),
		Timeout:    viper.GetDuration("assistant.timeout"),
		MaxRetries: viper.GetInt("assistant.max_retries"),
		UserAgent:  "manuscript-engine/" + version,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
