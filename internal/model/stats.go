package model

import "statboard/internal/matchstats"

// MatchView is what the match page renders: match metadata plus every
// participant with an attached comparison chart
type MatchView struct {
	ID           string              `json:"id"`
	Mode         string              `json:"mode"`
	Duration     string              `json:"duration"` // minutes:seconds
	Summoner     string              `json:"summoner"`
	Averages     matchstats.Averages `json:"averages"`
	Participants []ParticipantView   `json:"participants"`
}

type ParticipantView struct {
	Name     string                 `json:"name"`
	Champion string                 `json:"champion"`
	Kills    int                    `json:"kills"`
	Deaths   int                    `json:"deaths"`
	Assists  int                    `json:"assists"`
	Win      bool                   `json:"win"`
	Gold     int                    `json:"gold"`
	Damage   int                    `json:"damage"`
	Chart    *matchstats.ChartImage `json:"chart"`
}

// PlayerStatsView is the battle-royale lifetime stats page for one mode
type PlayerStatsView struct {
	Player       string                 `json:"player"`
	AccountID    string                 `json:"accountId"`
	Mode         string                 `json:"mode"`
	Modes        []string               `json:"modes"`
	RoundsPlayed int                    `json:"roundsPlayed"`
	WinRate      float64                `json:"winRate"`
	KDRatio      float64                `json:"kdRatio"`
	Chart        *matchstats.ChartImage `json:"chart"`
}
