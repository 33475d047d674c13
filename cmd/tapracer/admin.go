package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/park285/tap-racer/internal/domain"
	"github.com/park285/tap-racer/internal/identity"
	"github.com/park285/tap-racer/internal/lobby"
	"github.com/park285/tap-racer/internal/msgcat"
	"github.com/park285/tap-racer/internal/stats"
)

func runRooms(ctx context.Context, w io.Writer, opts *options) error {
	st, err := openStore(loadConfig(opts))
	if err != nil {
		return err
	}
	defer st.Close()

	rooms, err := lobby.NewRegistry(st).ListOpenRooms(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROOM\tSTATUS\tPLAYERS\tCREATOR")
	for _, r := range rooms {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n", r.ID, r.Status, len(r.Players), domain.MaxPlayers, r.CreatorID)
	}
	return tw.Flush()
}

func runLeaderboard(ctx context.Context, w io.Writer, opts *options) error {
	cfg := loadConfig(opts)
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return err
	}

	top, err := stats.NewAggregator(st).Top(ctx, cfg.LeaderboardLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, cat.Message("leaderboard.title", map[string]any{"Limit": cfg.LeaderboardLimit}))
	if len(top) == 0 {
		fmt.Fprintln(w, cat.Message("leaderboard.empty", nil))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, s := range top {
		fmt.Fprintf(tw, "%d\t%s\t%d%%\t%d/%d\n", i+1, s.Name, s.WinRate, s.Wins, s.TotalGames)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, cat.Message("leaderboard.advisory", map[string]any{"MinGames": stats.MinGamesAdvisory}))
	return nil
}

func runToken(w io.Writer, opts *options) error {
	cfg := loadConfig(opts)
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to issue tokens")
	}
	v, err := identity.NewJWTVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}
	tok, err := v.Issue(domain.Identity{UID: opts.uid, Name: opts.name}, opts.ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, tok)
	return err
}
