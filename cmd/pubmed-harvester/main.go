// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubmed-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-harvester/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds NCBI credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, else the loaded secret
// value for key, else "".
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the pubmed-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "pubmed-harvester",
	Short: "Harvest PubMed abstract records into a local cache",
	Long: `pubmed-harvester discovers PubMed records matching a query, fetches their
abstracts through the rate-limited E-utilities API, and persists each record
as a JSON file under the data directory exactly once. Already-cached records
are never re-fetched.

Use "harvest" to run discovery and fetching, and "catalog" to build and query
a local SQLite index over the harvested records.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pubmed-harvester.yaml or ~/.config/pubmed-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubmed-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubmed-harvester"))
		}
	}

	viper.SetEnvPrefix("PUBMED_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// settingStr resolves a string setting: flag value, then config file, then
// fallback.
func settingStr(flagVal, key, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

// settingInt resolves an integer setting the same way; zero means unset.
func settingInt(flagVal int, key string, fallback int) int {
	if flagVal != 0 {
		return flagVal
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

// settingFloat resolves a float setting the same way; zero means unset.
func settingFloat(flagVal float64, key string, fallback float64) float64 {
	if flagVal != 0 {
		return flagVal
	}
	if v := viper.GetFloat64(key); v != 0 {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
