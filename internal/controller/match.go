package controller

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"statboard/internal/cache"
	"statboard/internal/matchstats"
	"statboard/internal/model"
	"statboard/pkg/riot"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoMatches is returned when the player exists but has no match history
var ErrNoMatches = errors.New("player has no recorded matches")

// RenderError fails a whole match request when any participant's chart
// could not be drawn
type RenderError struct {
	Names []string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render charts for %s: %v", strings.Join(e.Names, ", "), e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// MatchSource is the match-history API behind the controller; *riot.Client
// satisfies it
type MatchSource interface {
	ResolvePUUID(ctx context.Context, handle string) (string, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.MatchResponse, error)
}

type MatchController interface {
	// LatestMatch resolves the handle, loads the player's most recent match
	// and returns it with a comparison chart per participant
	LatestMatch(ctx context.Context, summoner string) (*model.MatchView, error)
}

type renderFunc func(matchstats.Participant, matchstats.Averages) (*matchstats.ChartImage, error)

type matchController struct {
	source     MatchSource
	cache      cache.Cache
	accountTTL time.Duration
	render     renderFunc
}

func NewMatch(source MatchSource, c cache.Cache, accountTTL time.Duration) MatchController {
	return &matchController{
		source:     source,
		cache:      c,
		accountTTL: accountTTL,
		render:     matchstats.RenderComparison,
	}
}

func (mc *matchController) LatestMatch(ctx context.Context, summoner string) (*model.MatchView, error) {
	summoner = strings.TrimSpace(summoner)
	if summoner == "" {
		return nil, fmt.Errorf("summoner cannot be empty")
	}

	startTime := time.Now()

	puuid, err := cache.GetOrLoad(ctx, mc.cache, accountKey(summoner), mc.accountTTL, func(ctx context.Context) (string, error) {
		return mc.source.ResolvePUUID(ctx, summoner)
	})
	if err != nil {
		return nil, err
	}

	ids, err := mc.source.GetMatchIDs(ctx, puuid, 1)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoMatches
	}

	match, err := mc.source.GetMatch(ctx, ids[0])
	if err != nil {
		return nil, err
	}

	participants := toParticipants(match.Info.Participants)

	averages, err := matchstats.Aggregate(participants)
	if err != nil {
		log.Warn().
			Str("summoner", summoner).
			Str("match_id", ids[0]).
			Msg("Match has no participants")
		return nil, err
	}

	charts, err := mc.renderAll(ctx, participants, averages)
	if err != nil {
		log.Error().
			Err(err).
			Str("summoner", summoner).
			Str("match_id", ids[0]).
			Msg("Failed to render participant charts")
		return nil, err
	}

	view := &model.MatchView{
		ID:           match.Metadata.MatchID,
		Mode:         match.Info.GameMode,
		Duration:     FormatDuration(match.Info.GameDuration),
		Summoner:     summoner,
		Averages:     averages,
		Participants: make([]model.ParticipantView, len(participants)),
	}
	if view.ID == "" {
		view.ID = ids[0]
	}

	for i, p := range match.Info.Participants {
		view.Participants[i] = model.ParticipantView{
			Name:     participants[i].Name,
			Champion: p.ChampionName,
			Kills:    p.Kills,
			Deaths:   p.Deaths,
			Assists:  p.Assists,
			Win:      p.Win,
			Gold:     p.GoldEarned,
			Damage:   p.TotalDamageDealtToChampions,
			Chart:    charts[i],
		}
	}

	log.Info().
		Str("summoner", summoner).
		Str("match_id", view.ID).
		Int("participants", len(participants)).
		Dur("duration", time.Since(startTime)).
		Msg("Built match view")

	return view, nil
}

// renderAll draws every participant's chart concurrently; charts[i] belongs
// to participants[i]. Any failure fails the whole batch.
func (mc *matchController) renderAll(ctx context.Context, participants []matchstats.Participant, averages matchstats.Averages) ([]*matchstats.ChartImage, error) {
	charts := make([]*matchstats.ChartImage, len(participants))

	var (
		mu     sync.Mutex
		failed []string
	)

	// No shared cancellation: every participant is attempted so the error
	// can name all of the failures.
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i, p := range participants {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chart, err := mc.render(p, averages)
			if err != nil {
				mu.Lock()
				failed = append(failed, p.Name)
				mu.Unlock()
				return fmt.Errorf("%s: %w", p.Name, err)
			}
			charts[i] = chart
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if len(failed) == 0 {
			// Request cancelled before anything failed to draw
			return nil, err
		}
		sort.Strings(failed)
		return nil, &RenderError{Names: failed, Err: err}
	}
	return charts, nil
}

func toParticipants(in []riot.MatchParticipant) []matchstats.Participant {
	out := make([]matchstats.Participant, len(in))
	for i, p := range in {
		name := p.DisplayName()
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		out[i] = matchstats.Participant{
			Name:   name,
			Gold:   float64(p.GoldEarned),
			Damage: float64(p.TotalDamageDealtToChampions),
		}
	}
	return out
}

func accountKey(handle string) string {
	return "riot:puuid:" + strings.ToLower(handle)
}

// FormatDuration renders seconds as minutes:seconds without zero padding,
// so 125 becomes "2:5"
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%d", seconds/60, seconds%60)
}
