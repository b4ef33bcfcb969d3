package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the inference cache",
	Long: `The inference cache stores parsed records and segmentation results
keyed by content fingerprint. Re-running over unchanged inputs is answered
entirely from the cache without calling the backend.`,
	RunE: runCacheStats,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts",
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache database path",
	RunE:  runCachePath,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache database",
	Long: `Delete the cache database. The next process run re-parses every
chunk from scratch.`,
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cacheDir() string {
	return configString(driven.ConfigCacheDir, "")
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	cache, err := openCache(cacheDir())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	stats, err := cache.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}

	cmd.Printf("Cache: %s\n", stats.Path)
	cmd.Printf("  Parsed chunks:         %d\n", stats.RecordEntries)
	cmd.Printf("  Segmented transcripts: %d\n", stats.SegmentEntries)
	return nil
}

func runCachePath(cmd *cobra.Command, _ []string) error {
	cache, err := openCache(cacheDir())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	stats, err := cache.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading cache stats: %w", err)
	}
	cmd.Println(stats.Path)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cache, err := openCache(cacheDir())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	stats, err := cache.Stats(cmd.Context())
	if err != nil {
		cache.Close()
		return fmt.Errorf("reading cache stats: %w", err)
	}
	if err := cache.Close(); err != nil {
		return fmt.Errorf("closing cache: %w", err)
	}

	// WAL mode leaves sidecar files next to the database.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(stats.Path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", stats.Path+suffix, err)
		}
	}

	cmd.Printf("Removed %s (%d parsed chunks, %d segmented transcripts)\n",
		stats.Path, stats.RecordEntries, stats.SegmentEntries)
	return nil
}
