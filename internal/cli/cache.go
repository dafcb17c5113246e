package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the lyric cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired lyric cache entries",
	Long: `Remove lyric cache entries older than cache.ttl hours from the local
store. Redis expires entries on its own.`,
	RunE: runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() { _ = store.Close() }()

	removed, err := store.PurgeLyrics()
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]int{"removed": removed})
	}
	fmt.Printf("Removed %d expired %s\n", removed, plural(removed, "entry", "entries"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
