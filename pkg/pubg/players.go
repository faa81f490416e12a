package pubg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"statboard/pkg/upstream"
)

// PUBGPlayerResponse is the root structure for player data from PUBG API
type PUBGPlayerResponse struct {
	Data  []PlayerData           `json:"data"`
	Links Links                  `json:"links"`
	Meta  map[string]interface{} `json:"meta"`
}

// PlayerData represents information about a player
type PlayerData struct {
	Type          string              `json:"type"`
	ID            string              `json:"id"`
	Attributes    PlayerAttributes    `json:"attributes"`
	Relationships PlayerRelationships `json:"relationships"`
	Links         SelfLinks           `json:"links"`
}

// PlayerAttributes contains player details
type PlayerAttributes struct {
	BanType      string `json:"banType"`
	ClanID       string `json:"clanId"`
	Name         string `json:"name"`
	TitleID      string `json:"titleId"`
	ShardID      string `json:"shardId"`
	PatchVersion string `json:"patchVersion"`
}

// PlayerRelationships represents related data
type PlayerRelationships struct {
	Matches RelationshipData `json:"matches"`
}

// RelationshipData contains arrays of related objects
type RelationshipData struct {
	Data []RelatedItem `json:"data"`
}

// RelatedItem represents a reference to another object
type RelatedItem struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// SelfLinks contains links for the entity
type SelfLinks struct {
	Self   string `json:"self"`
	Schema string `json:"schema"`
}

// Links contains navigation links
type Links struct {
	Self string `json:"self"`
}

// GetPlayersByNames retrieves data for up to 10 players by their in-game names from a specific shard
func (c *Client) GetPlayersByNames(ctx context.Context, shard string, playerNames []string) (*PUBGPlayerResponse, error) {
	if len(playerNames) == 0 {
		return nil, fmt.Errorf("no player names provided")
	}

	if len(playerNames) > 10 {
		return nil, fmt.Errorf("too many player names: maximum is 10, got %d", len(playerNames))
	}

	if shard == "" {
		return nil, fmt.Errorf("shard cannot be empty")
	}

	escaped := make([]string, len(playerNames))
	for i, name := range playerNames {
		escaped[i] = url.QueryEscape(name)
	}

	endpoint := fmt.Sprintf("/shards/%s/players?filter[playerNames]=%s", shard, strings.Join(escaped, ","))

	log.Info().
		Str("shard", shard).
		Int("player_count", len(playerNames)).
		Msg("Getting players by names")

	respBody, err := c.request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error getting player data: %w", err)
	}

	var playerResponse PUBGPlayerResponse
	if err := json.Unmarshal(respBody, &playerResponse); err != nil {
		log.Error().
			Str("shard", shard).
			Err(err).
			Msg("Error unmarshaling player data")
		return nil, fmt.Errorf("error unmarshaling player data: %w", err)
	}

	if len(playerResponse.Data) == 0 {
		log.Warn().
			Str("shard", shard).
			Strs("player_names", playerNames).
			Msg("No players found for the given names")
		return nil, fmt.Errorf("no players found for the given names: %w", upstream.ErrNotFound)
	}

	log.Info().
		Str("shard", shard).
		Int("players_found", len(playerResponse.Data)).
		Msg("Retrieved player data by names")

	return &playerResponse, nil
}

// GetPlayerID resolves a single in-game name to its account ID
func (c *Client) GetPlayerID(ctx context.Context, shard, playerName string) (string, error) {
	resp, err := c.GetPlayersByNames(ctx, shard, []string{playerName})
	if err != nil {
		return "", err
	}

	for _, player := range resp.Data {
		if strings.EqualFold(player.Attributes.Name, playerName) {
			return player.ID, nil
		}
	}
	return resp.Data[0].ID, nil
}
