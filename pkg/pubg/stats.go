package pubg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/rs/zerolog/log"

	"statboard/pkg/upstream"
)

// LifetimeStatsResponse is the root structure of /seasons/lifetime
type LifetimeStatsResponse struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			GameModeStats map[string]GameModeStats `json:"gameModeStats"`
		} `json:"attributes"`
	} `json:"data"`
}

// GameModeStats holds the lifetime counters for a single game mode
type GameModeStats struct {
	Assists         int     `json:"assists"`
	Boosts          int     `json:"boosts"`
	DBNOs           int     `json:"dBNOs"`
	DamageDealt     float64 `json:"damageDealt"`
	HeadshotKills   int     `json:"headshotKills"`
	Heals           int     `json:"heals"`
	Kills           int     `json:"kills"`
	Losses          int     `json:"losses"`
	LongestKill     float64 `json:"longestKill"`
	Revives         int     `json:"revives"`
	RoadKills       int     `json:"roadKills"`
	RoundMostKills  int     `json:"roundMostKills"`
	RoundsPlayed    int     `json:"roundsPlayed"`
	Suicides        int     `json:"suicides"`
	TeamKills       int     `json:"teamKills"`
	TimeSurvived    float64 `json:"timeSurvived"`
	Top10s          int     `json:"top10s"`
	VehicleDestroys int     `json:"vehicleDestroys"`
	WalkDistance    float64 `json:"walkDistance"`
	WeaponsAcquired int     `json:"weaponsAcquired"`
	Wins            int     `json:"wins"`
}

// Modes returns the game modes present in the response, sorted
func (r *LifetimeStatsResponse) Modes() []string {
	modes := make([]string, 0, len(r.Data.Attributes.GameModeStats))
	for mode := range r.Data.Attributes.GameModeStats {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// GetLifetimeStats retrieves lifetime stats for a player account
func (c *Client) GetLifetimeStats(ctx context.Context, shard, accountID string) (*LifetimeStatsResponse, error) {
	if shard == "" {
		return nil, fmt.Errorf("shard cannot be empty")
	}
	if accountID == "" {
		return nil, fmt.Errorf("accountID cannot be empty")
	}

	endpoint := fmt.Sprintf("/shards/%s/players/%s/seasons/lifetime", shard, url.PathEscape(accountID))

	respBody, err := c.request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error getting lifetime stats: %w", err)
	}

	var stats LifetimeStatsResponse
	if err := json.Unmarshal(respBody, &stats); err != nil {
		log.Error().
			Str("account_id", accountID).
			Err(err).
			Msg("Error unmarshaling lifetime stats")
		return nil, fmt.Errorf("error unmarshaling lifetime stats: %w", err)
	}

	log.Info().
		Str("account_id", accountID).
		Strs("modes", stats.Modes()).
		Msg("Retrieved lifetime stats")

	return &stats, nil
}

// ModeStats returns the stats for one game mode or ErrNotFound when the
// player has no record in that mode
func (r *LifetimeStatsResponse) ModeStats(mode string) (GameModeStats, error) {
	stats, ok := r.Data.Attributes.GameModeStats[mode]
	if !ok {
		return GameModeStats{}, fmt.Errorf("no stats for mode %s: %w", mode, upstream.ErrNotFound)
	}
	return stats, nil
}
