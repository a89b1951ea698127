package service_test

import (
	"testing"

	"github.com/devsplug/scoring-engine/internal/service"
)

func defaultBands() []service.TitleBand {
	return []service.TitleBand{
		{MinScore: 0, Label: "novice"},
		{MinScore: 1001, Label: "pro"},
		{MinScore: 3001, Label: "plug"},
		{MinScore: 7001, Label: "champion"},
		{MinScore: 15001, Label: "legend"},
	}
}

func TestTitleTableValidation(t *testing.T) {
	cases := []struct {
		name  string
		bands []service.TitleBand
	}{
		{"empty table", nil},
		{"first threshold not zero", []service.TitleBand{{MinScore: 100, Label: "novice"}}},
		{"empty label", []service.TitleBand{{MinScore: 0, Label: ""}}},
		{"non-ascending thresholds", []service.TitleBand{
			{MinScore: 0, Label: "novice"},
			{MinScore: 500, Label: "pro"},
			{MinScore: 500, Label: "plug"},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.NewTitleTable(tc.bands); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestTitleTableClassify(t *testing.T) {
	table, err := service.NewTitleTable(defaultBands())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	cases := []struct {
		score int
		want  string
	}{
		{-5, "novice"}, // negative scores fall into the first band
		{0, "novice"},
		{1000, "novice"},
		{1001, "pro"},
		{3000, "pro"},
		{3001, "plug"},
		{7000, "plug"},
		{7001, "champion"},
		{15000, "champion"},
		{15001, "legend"},
		{1_000_000, "legend"},
	}

	for _, tc := range cases {
		if got := table.Classify(tc.score); got != tc.want {
			t.Errorf("Classify(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestTitleTableMonotonic(t *testing.T) {
	table, err := service.NewTitleTable(defaultBands())
	if err != nil {
		t.Fatalf("new table: %v", err)
	}

	// Title index must never decrease as the score grows.
	order := map[string]int{"novice": 0, "pro": 1, "plug": 2, "champion": 3, "legend": 4}
	prev := 0
	for score := 0; score <= 20000; score += 7 {
		idx := order[table.Classify(score)]
		if idx < prev {
			t.Fatalf("title regressed at score %d", score)
		}
		prev = idx
	}
}
