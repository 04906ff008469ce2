package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourls/yourls-cli/internal/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cache",
		Aliases: []string{"ch"},
		Short:   "Manage the local cache of expanded URLs and link listings",
	}

	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePathCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached data",
		Long: `Remove cached files for every server. When YOURLS_REDIS_URL is set, the
entries of the configured server are removed from redis as well.`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("could not determine cache directory")
			}
			removed := cache.ClearAll(dir)

			redisCleared := false
			if redisURL := strings.TrimSpace(os.Getenv("YOURLS_REDIS_URL")); redisURL != "" {
				res, err := newClientFactory().resolve()
				if err != nil {
					return err
				}
				ctx, cancel := requestContext(cmd)
				defer cancel()
				client, err := cache.OpenRedis(ctx, redisURL)
				if err != nil {
					return fmt.Errorf("failed to connect to redis: %w", err)
				}
				defer func() { _ = client.Close() }()
				if err := cache.NewRedisBackend(client, res.URL, 0).Clear(ctx); err != nil {
					return fmt.Errorf("failed to clear redis cache: %w", err)
				}
				redisCleared = true
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"dir":           dir,
					"files_removed": removed,
					"redis_cleared": redisCleared,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s (%d files)\n", dir, removed)
			if redisCleared {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Redis cache cleared")
			}
			return nil
		}),
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the cache directory path",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			dir := resolveCacheDir()
			if dir == "" {
				return fmt.Errorf("could not determine cache directory")
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"dir": dir})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), dir)

			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil // directory might not exist yet
			}
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
					continue
				}
				info, err := e.Info()
				if err != nil {
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d bytes)\n", e.Name(), info.Size())
			}
			return nil
		}),
	}
}
