// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-harvester/internal/catalog"
	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local SQLite index over harvested abstracts",
	Long: `Catalog maintains a SQLite database built from the harvested record cache.
Use subcommands to rebuild the index, search it, or print statistics. The
index is derived data: it can always be rebuilt from the JSON record files.`,
}

var catalogReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the catalog from the record cache",
	RunE:  runCatalogReindex,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search indexed abstracts by title, abstract text, or keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogSearch,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print catalog statistics",
	RunE:  runCatalogStats,
}

func init() {
	catalogCmd.PersistentFlags().String("data-dir", "", "record cache directory (default data/abstracts)")
	catalogSearchCmd.Flags().Int("max-results", 0, "maximum search results (default 20)")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	catalogCmd.AddCommand(catalogReindexCmd)
	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	rootCmd.AddCommand(catalogCmd)
}

func catalogStore(cmd *cobra.Command) (*catalog.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return catalog.NewStore(types.CatalogConfig{
		DataDir:    settingStr(dataDir, "fetch.data_dir", defaultDataDir),
		MaxResults: settingInt(maxResults, "catalog.max_results", 0),
	})
}

func runCatalogReindex(cmd *cobra.Command, args []string) error {
	store, err := catalogStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Reindex(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d cache entr(ies) failed indexing", summary.Failed)
	}
	return nil
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	store, err := catalogStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(context.Background(), args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-60s  %-24s  %s\n", "PMID", "Title", "Journal", "Date")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		journal := r.Journal
		if len(journal) > 24 {
			journal = journal[:21] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-10s  %-60s  %-24s  %s\n", r.ID, title, journal, r.PublicationDate)
	}
	fmt.Fprintf(os.Stdout, "\n%d result(s)\n", len(results))
	return nil
}

func runCatalogStats(cmd *cobra.Command, args []string) error {
	store, err := catalogStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Abstracts: %d\n", stats.Abstracts)
	fmt.Printf("With DOI:  %d\n", stats.WithDOI)
	fmt.Printf("Journals:  %d\n", stats.Journals)
	return nil
}
