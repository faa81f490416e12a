package riot

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// GetAccountByRiotID fetches account info by Riot ID (gameName#tagLine)
func (c *Client) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*AccountResponse, error) {
	endpoint := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account AccountResponse
	if err := c.getJSON(ctx, endpoint, &account); err != nil {
		return nil, fmt.Errorf("error getting account %s#%s: %w", gameName, tagLine, err)
	}
	return &account, nil
}

// GetSummonerByName fetches a summoner by its legacy summoner name
func (c *Client) GetSummonerByName(ctx context.Context, name string) (*SummonerResponse, error) {
	endpoint := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-name/%s", c.platformURL, url.PathEscape(name))

	var summoner SummonerResponse
	if err := c.getJSON(ctx, endpoint, &summoner); err != nil {
		return nil, fmt.Errorf("error getting summoner %s: %w", name, err)
	}
	return &summoner, nil
}

// ResolvePUUID turns a player handle into a PUUID. Handles of the form
// "name#tag" go through account-v1, anything else through summoner-v4.
func (c *Client) ResolvePUUID(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", fmt.Errorf("handle cannot be empty")
	}

	if gameName, tagLine, ok := strings.Cut(handle, "#"); ok && gameName != "" && tagLine != "" {
		account, err := c.GetAccountByRiotID(ctx, gameName, tagLine)
		if err != nil {
			return "", err
		}
		return account.PUUID, nil
	}

	summoner, err := c.GetSummonerByName(ctx, handle)
	if err != nil {
		return "", err
	}
	return summoner.PUUID, nil
}

// GetMatchIDs fetches the most recent match IDs for a player, newest first
func (c *Client) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = 1
	}
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.regionalURL, url.PathEscape(puuid), count)

	var matchIDs []string
	if err := c.getJSON(ctx, endpoint, &matchIDs); err != nil {
		return nil, fmt.Errorf("error getting match ids: %w", err)
	}

	log.Debug().
		Str("puuid", puuid).
		Int("match_count", len(matchIDs)).
		Msg("Retrieved match ids")

	return matchIDs, nil
}

// GetMatch fetches match details
func (c *Client) GetMatch(ctx context.Context, matchID string) (*MatchResponse, error) {
	if matchID == "" {
		return nil, fmt.Errorf("matchID cannot be empty")
	}
	endpoint := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, url.PathEscape(matchID))

	var match MatchResponse
	if err := c.getJSON(ctx, endpoint, &match); err != nil {
		return nil, fmt.Errorf("error getting match %s: %w", matchID, err)
	}

	log.Info().
		Str("match_id", match.Metadata.MatchID).
		Str("game_mode", match.Info.GameMode).
		Int("participants", len(match.Info.Participants)).
		Msg("Retrieved match data")

	return &match, nil
}
