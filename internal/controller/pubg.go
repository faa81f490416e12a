package controller

import (
	"context"
	"fmt"
	"statboard/internal/cache"
	"statboard/internal/matchstats"
	"statboard/internal/model"
	"statboard/pkg/pubg"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// StatsSource is the battle-royale API behind the stats controller;
// *pubg.Client satisfies it
type StatsSource interface {
	GetPlayerID(ctx context.Context, shard, playerName string) (string, error)
	GetLifetimeStats(ctx context.Context, shard, accountID string) (*pubg.LifetimeStatsResponse, error)
}

type PubgController interface {
	PlayerStats(ctx context.Context, player, mode string) (*model.PlayerStatsView, error)
}

type pubgController struct {
	client      StatsSource
	cache       cache.Cache
	shard       string
	defaultMode string
	accountTTL  time.Duration
}

func NewPUBG(client StatsSource, c cache.Cache, shard, defaultMode string, accountTTL time.Duration) PubgController {
	return &pubgController{
		client:      client,
		cache:       c,
		shard:       shard,
		defaultMode: defaultMode,
		accountTTL:  accountTTL,
	}
}

func (pc *pubgController) PlayerStats(ctx context.Context, player, mode string) (*model.PlayerStatsView, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, fmt.Errorf("player cannot be empty")
	}
	if mode == "" {
		mode = pc.defaultMode
	}

	// PUBG matches playerNames case-sensitively, so the key keeps the case
	key := fmt.Sprintf("pubg:account:%s:%s", pc.shard, player)
	accountID, err := cache.GetOrLoad(ctx, pc.cache, key, pc.accountTTL, func(ctx context.Context) (string, error) {
		return pc.client.GetPlayerID(ctx, pc.shard, player)
	})
	if err != nil {
		return nil, err
	}

	lifetime, err := pc.client.GetLifetimeStats(ctx, pc.shard, accountID)
	if err != nil {
		return nil, err
	}

	stats, err := lifetime.ModeStats(mode)
	if err != nil {
		return nil, err
	}

	chart, err := matchstats.RenderBars(player+" "+mode, StatBars(stats))
	if err != nil {
		log.Error().Err(err).Str("player", player).Str("mode", mode).Msg("Failed to render stats chart")
		return nil, &RenderError{Names: []string{player}, Err: err}
	}

	view := &model.PlayerStatsView{
		Player:       player,
		AccountID:    accountID,
		Mode:         mode,
		Modes:        lifetime.Modes(),
		RoundsPlayed: stats.RoundsPlayed,
		Chart:        chart,
	}
	if stats.RoundsPlayed > 0 {
		view.WinRate = float64(stats.Wins) / float64(stats.RoundsPlayed)
	}
	if stats.Losses > 0 {
		view.KDRatio = float64(stats.Kills) / float64(stats.Losses)
	} else {
		view.KDRatio = float64(stats.Kills)
	}

	log.Info().
		Str("player", player).
		Str("mode", mode).
		Int("rounds", stats.RoundsPlayed).
		Msg("Built player stats view")

	return view, nil
}

// StatBars is the fixed chart series for a player's mode stats
func StatBars(s pubg.GameModeStats) []matchstats.Bar {
	return []matchstats.Bar{
		{Label: "Kills", Value: float64(s.Kills)},
		{Label: "Assists", Value: float64(s.Assists)},
		{Label: "Wins", Value: float64(s.Wins)},
		{Label: "Top 10s", Value: float64(s.Top10s)},
		{Label: "Headshots", Value: float64(s.HeadshotKills)},
		{Label: "Revives", Value: float64(s.Revives)},
		{Label: "DBNOs", Value: float64(s.DBNOs)},
	}
}
