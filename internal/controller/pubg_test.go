package controller

import (
	"context"
	"errors"
	"reflect"
	"statboard/pkg/pubg"
	"statboard/pkg/upstream"
	"testing"
	"time"
)

type fakeStatsSource struct {
	accountID string
	stats     map[string]pubg.GameModeStats
	lookups   int
	lastShard string
}

func (f *fakeStatsSource) GetPlayerID(_ context.Context, shard, name string) (string, error) {
	f.lookups++
	f.lastShard = shard
	if f.accountID == "" {
		return "", upstream.ErrNotFound
	}
	return f.accountID, nil
}

func (f *fakeStatsSource) GetLifetimeStats(context.Context, string, string) (*pubg.LifetimeStatsResponse, error) {
	resp := &pubg.LifetimeStatsResponse{}
	resp.Data.Attributes.GameModeStats = f.stats
	return resp, nil
}

func TestPlayerStatsDefaultMode(t *testing.T) {
	source := &fakeStatsSource{
		accountID: "account.abc",
		stats: map[string]pubg.GameModeStats{
			"squad-fpp": {Kills: 40, Assists: 12, Wins: 5, Top10s: 20, HeadshotKills: 9, Revives: 3, DBNOs: 30, RoundsPlayed: 50, Losses: 45},
			"solo":      {Kills: 1},
		},
	}
	pc := NewPUBG(source, &mapCache{}, pubg.SteamPlatform, "squad-fpp", time.Hour)

	view, err := pc.PlayerStats(context.Background(), "shroud", "")
	if err != nil {
		t.Fatalf("PlayerStats error = %v", err)
	}

	if view.Mode != "squad-fpp" || view.AccountID != "account.abc" {
		t.Fatalf("unexpected view: %+v", view)
	}
	if source.lastShard != pubg.SteamPlatform {
		t.Fatalf("shard = %q, want %q", source.lastShard, pubg.SteamPlatform)
	}
	if view.WinRate != 0.1 {
		t.Fatalf("WinRate = %v, want 0.1", view.WinRate)
	}
	if !reflect.DeepEqual(view.Modes, []string{"solo", "squad-fpp"}) {
		t.Fatalf("Modes = %v", view.Modes)
	}
	if want := []string{"40", "12", "5", "20", "9", "3", "30"}; !reflect.DeepEqual(view.Chart.Labels, want) {
		t.Fatalf("chart labels = %v, want %v", view.Chart.Labels, want)
	}
}

func TestPlayerStatsCachesAccountID(t *testing.T) {
	source := &fakeStatsSource{
		accountID: "account.abc",
		stats:     map[string]pubg.GameModeStats{"solo": {Kills: 2}},
	}
	pc := NewPUBG(source, &mapCache{}, pubg.SteamPlatform, "squad-fpp", time.Hour)

	for i := 0; i < 3; i++ {
		if _, err := pc.PlayerStats(context.Background(), "shroud", "solo"); err != nil {
			t.Fatalf("PlayerStats error = %v", err)
		}
	}
	if source.lookups != 1 {
		t.Fatalf("GetPlayerID called %d times, want 1", source.lookups)
	}
}

func TestPlayerStatsCacheKeyKeepsCase(t *testing.T) {
	source := &fakeStatsSource{
		accountID: "account.abc",
		stats:     map[string]pubg.GameModeStats{"solo": {Kills: 2}},
	}
	pc := NewPUBG(source, &mapCache{}, pubg.SteamPlatform, "squad-fpp", time.Hour)

	for _, name := range []string{"Shroud", "shroud", "Shroud"} {
		if _, err := pc.PlayerStats(context.Background(), name, "solo"); err != nil {
			t.Fatalf("PlayerStats(%q) error = %v", name, err)
		}
	}
	if source.lookups != 2 {
		t.Fatalf("GetPlayerID called %d times, want one per distinct name", source.lookups)
	}
}

func TestPlayerStatsUnknownMode(t *testing.T) {
	source := &fakeStatsSource{
		accountID: "account.abc",
		stats:     map[string]pubg.GameModeStats{"solo": {Kills: 2}},
	}
	pc := NewPUBG(source, nil, pubg.SteamPlatform, "squad-fpp", time.Hour)

	_, err := pc.PlayerStats(context.Background(), "shroud", "duo")
	if !errors.Is(err, upstream.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestPlayerStatsUnknownPlayer(t *testing.T) {
	pc := NewPUBG(&fakeStatsSource{}, nil, pubg.SteamPlatform, "squad-fpp", time.Hour)

	_, err := pc.PlayerStats(context.Background(), "nobody", "")
	if upstream.KindOf(err) != upstream.KindNotFound {
		t.Fatalf("error = %v, want not found", err)
	}
}
