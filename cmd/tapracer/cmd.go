package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/tap-racer/internal/config"
	"github.com/park285/tap-racer/internal/identity"
	"github.com/park285/tap-racer/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type options struct {
	addr         string
	storeBackend string
	limit        int
	uid          string
	name         string
	ttl          time.Duration
}

func newCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:     "tapracer",
		Short:   "Multiplayer tap-to-race server.",
		Args:    cobra.NoArgs,
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket gateway (default).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serveFlags(cmd.Flags(), opts)
	serveFlags(serve.Flags(), opts)

	rooms := &cobra.Command{
		Use:   "rooms",
		Short: "Print the open rooms once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRooms(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	rooms.Flags().StringVar(&opts.storeBackend, "store", "", "store backend, redis or memory (env: STORE_BACKEND)")

	board := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top players by win rate.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLeaderboard(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	board.Flags().IntVarP(&opts.limit, "limit", "n", 0, "entries to show (env: LEADERBOARD_LIMIT)")

	token := &cobra.Command{
		Use:   "token",
		Short: "Issue a development token signed with JWT_SECRET.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd.OutOrStdout(), opts)
		},
	}
	token.Flags().StringVar(&opts.uid, "uid", "", "user id (required)")
	token.Flags().StringVar(&opts.name, "name", "", "display name")
	token.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = token.MarkFlagRequired("uid")

	cmd.AddCommand(serve, rooms, board, token)
	for _, c := range []*cobra.Command{cmd, serve, rooms, board, token} {
		c.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
			return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
		})
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetVersionTemplate("tapracer v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func serveFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.addr, "addr", "a", "", "listen address (env: HTTP_ADDR)")
	fs.StringVar(&opts.storeBackend, "store", "", "store backend, redis or memory (env: STORE_BACKEND)")
}

// loadConfig applies flag overrides on top of the environment.
func loadConfig(opts *options) *config.AppConfig {
	cfg := config.FromEnv()
	if opts.addr != "" {
		cfg.HTTPAddr = opts.addr
	}
	if opts.storeBackend != "" {
		cfg.StoreBackend = strings.ToLower(opts.storeBackend)
	}
	if opts.limit > 0 {
		cfg.LeaderboardLimit = opts.limit
	}
	return cfg
}

func openStore(cfg *config.AppConfig) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
		return store.NewRedisStore(cfg.RedisURL, cfg.StorePrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func newProvider(cfg *config.AppConfig) (identity.Provider, error) {
	switch cfg.AuthMode {
	case config.AuthRemote:
		return identity.NewRemoteVerifier(cfg.AuthBaseURL, identity.WithTimeout(cfg.AuthTimeout)), nil
	default:
		return identity.NewJWTVerifier(cfg.JWTSecret)
	}
}
