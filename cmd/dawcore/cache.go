// ABOUTME: cache command
// ABOUTME: Inspects and clears the persistent decoded-buffer cache
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/444radio/dawcore/pkg/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the decoded buffer cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache location and contents",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cached sources",
	Args:  cobra.NoArgs,
	RunE:  runCacheKeys,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached buffer",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheKeysCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openStore opens the persistent store directly
func openStore() (*cache.BoltStore, error) {
	if cfg.CachePath == "" {
		return nil, fmt.Errorf("no persistent cache configured")
	}
	return cache.OpenBoltStore(cfg.CachePath)
}

func closeStore(s *cache.BoltStore) {
	if err := s.Close(); err != nil {
		log.Printf("Failed to close cache store: %v", err)
	}
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	ctx := context.Background()
	keys, err := store.Keys(ctx)
	if err != nil {
		return err
	}

	var total int64
	for _, k := range keys {
		rec, err := store.Retrieve(ctx, k)
		if err != nil {
			log.Printf("Skipping unreadable cache entry %s: %v", k, err)
			continue
		}
		total += rec.Buffer().SizeBytes()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path:    %s\n", store.Path())
	fmt.Fprintf(out, "Entries: %d\n", len(keys))
	fmt.Fprintf(out, "Samples: %s (memory budget %s)\n", humanize.IBytes(uint64(total)), humanize.IBytes(uint64(cfg.CacheBytes())))
	return nil
}

func runCacheKeys(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	keys, err := store.Keys(context.Background())
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(store)

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", store.Path())
	return nil
}
