package matchstats

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"math"
	"reflect"
	"strconv"
	"sync"
	"testing"
)

func mustAggregate(t *testing.T, participants []Participant) Averages {
	t.Helper()
	avg, err := Aggregate(participants)
	if err != nil {
		t.Fatalf("Aggregate error = %v", err)
	}
	return avg
}

func TestRenderComparisonLabelsAndOrder(t *testing.T) {
	a := Participant{Name: "A", Gold: 1000, Damage: 2000}
	b := Participant{Name: "B", Gold: 3000, Damage: 4000}
	avg := mustAggregate(t, []Participant{a, b})

	chart, err := RenderComparison(a, avg)
	if err != nil {
		t.Fatalf("RenderComparison error = %v", err)
	}

	wantLabels := []string{"2000", "1000", "3000", "2000"}
	if !reflect.DeepEqual(chart.Labels, wantLabels) {
		t.Fatalf("Labels = %v, want %v", chart.Labels, wantLabels)
	}
	wantCategories := []string{"Average gold", "A gold", "Average damage", "A damage"}
	if !reflect.DeepEqual(chart.Categories, wantCategories) {
		t.Fatalf("Categories = %v, want %v", chart.Categories, wantCategories)
	}
}

func TestRenderComparisonEncodesPNG(t *testing.T) {
	p := Participant{Name: "A", Gold: 1000, Damage: 2000}
	chart, err := RenderComparison(p, mustAggregate(t, []Participant{p}))
	if err != nil {
		t.Fatalf("RenderComparison error = %v", err)
	}

	if _, err := png.Decode(bytes.NewReader(chart.PNG)); err != nil {
		t.Fatalf("chart is not a valid PNG: %v", err)
	}

	decoded, err := base64.URLEncoding.DecodeString(chart.Encoded)
	if err != nil {
		t.Fatalf("Encoded is not URL-safe base64: %v", err)
	}
	if !bytes.Equal(decoded, chart.PNG) {
		t.Fatalf("Encoded does not round-trip to the PNG bytes")
	}
}

func TestRenderComparisonTruncatesLabels(t *testing.T) {
	p := Participant{Name: "A", Gold: 1000.9, Damage: 2000.2}
	q := Participant{Name: "B", Gold: 2000, Damage: 3000.3}
	avg := mustAggregate(t, []Participant{p, q})

	chart, err := RenderComparison(p, avg)
	if err != nil {
		t.Fatalf("RenderComparison error = %v", err)
	}
	for i, v := range chart.Values {
		if want := strconv.Itoa(int(v)); chart.Labels[i] != want {
			t.Fatalf("label %d = %q, want %q (value %v)", i, chart.Labels[i], want, v)
		}
	}
}

func TestRenderComparisonIsDeterministic(t *testing.T) {
	p := Participant{Name: "A", Gold: 1234.5, Damage: 777}
	avg := mustAggregate(t, []Participant{p, {Name: "B", Gold: 10, Damage: 20}})

	first, err := RenderComparison(p, avg)
	if err != nil {
		t.Fatalf("RenderComparison error = %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := RenderComparison(p, avg)
		if err != nil {
			t.Fatalf("RenderComparison error = %v", err)
		}
		if !reflect.DeepEqual(first.Labels, again.Labels) || !reflect.DeepEqual(first.Values, again.Values) {
			t.Fatalf("render %d differs: %v vs %v", i, again.Labels, first.Labels)
		}
	}
}

func TestRenderComparisonConcurrentIsolation(t *testing.T) {
	participants := make([]Participant, 10)
	for i := range participants {
		participants[i] = Participant{
			Name:   fmt.Sprintf("player%d", i),
			Gold:   float64(1000 * (i + 1)),
			Damage: float64(10000*(i+1) + 7),
		}
	}
	avg := mustAggregate(t, participants)

	const rounds = 4
	var wg sync.WaitGroup
	errs := make(chan error, len(participants)*rounds)

	for r := 0; r < rounds; r++ {
		for _, p := range participants {
			wg.Add(1)
			go func(p Participant) {
				defer wg.Done()
				chart, err := RenderComparison(p, avg)
				if err != nil {
					errs <- err
					return
				}
				if chart.Labels[1] != strconv.Itoa(int(p.Gold)) || chart.Labels[3] != strconv.Itoa(int(p.Damage)) {
					errs <- fmt.Errorf("%s got labels %v", p.Name, chart.Labels)
				}
				if chart.Categories[1] != p.Name+" gold" {
					errs <- fmt.Errorf("%s got categories %v", p.Name, chart.Categories)
				}
				if _, err := png.Decode(bytes.NewReader(chart.PNG)); err != nil {
					errs <- fmt.Errorf("%s png: %w", p.Name, err)
				}
			}(p)
		}
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestRenderBarsRejectsInvalidValues(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), -1} {
		_, err := RenderBars("bad", []Bar{{Label: "ok", Value: 1}, {Label: "bad", Value: v}})
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("RenderBars(%v) error = %v, want ErrInvalidValue", v, err)
		}
	}

	if _, err := RenderBars("empty", nil); err == nil {
		t.Fatalf("RenderBars with no bars should fail")
	}
}

func TestRenderBarsAllZero(t *testing.T) {
	chart, err := RenderBars("zeros", []Bar{{Label: "kills", Value: 0}, {Label: "wins", Value: 0}})
	if err != nil {
		t.Fatalf("RenderBars error = %v", err)
	}
	if !reflect.DeepEqual(chart.Labels, []string{"0", "0"}) {
		t.Fatalf("Labels = %v", chart.Labels)
	}
}

func TestRenderComparisonLabelsBeyondInt64(t *testing.T) {
	p := Participant{Name: "Whale", Gold: 1e19, Damage: 5}
	avg := mustAggregate(t, []Participant{p})

	chart, err := RenderComparison(p, avg)
	if err != nil {
		t.Fatalf("RenderComparison error = %v", err)
	}
	want := []string{"10000000000000000000", "10000000000000000000", "5", "5"}
	if !reflect.DeepEqual(chart.Labels, want) {
		t.Fatalf("Labels = %v, want %v", chart.Labels, want)
	}
}

func TestValueLabel(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{0.99, "0"},
		{7.6, "7"},
		{12345, "12345"},
		{math.MaxInt64, "9223372036854775808"},
	}
	for _, tt := range tests {
		if got := valueLabel(tt.in); got != tt.want {
			t.Fatalf("valueLabel(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComparisonBarsRequiresAverages(t *testing.T) {
	if _, err := ComparisonBars(Participant{Name: "A"}, Averages{}); err == nil {
		t.Fatalf("ComparisonBars with empty Averages should fail")
	}
}
