package service

import (
	"errors"
	"fmt"
	"sort"
)

// TitleBand is one row of the title threshold table: every score at or above
// MinScore (up to the next band) carries Label.
type TitleBand struct {
	MinScore int
	Label    string
}

// TitleTable classifies scores into titles. The table is validated once at
// construction; Classify itself is a pure function with no error cases.
type TitleTable struct {
	bands []TitleBand
}

// NewTitleTable builds a classifier from bands sorted ascending by threshold.
// The first threshold must be 0 so that every non-negative score resolves.
func NewTitleTable(bands []TitleBand) (*TitleTable, error) {
	if len(bands) == 0 {
		return nil, errors.New("title table must not be empty")
	}
	if bands[0].MinScore != 0 {
		return nil, fmt.Errorf("first title threshold must be 0, got %d", bands[0].MinScore)
	}
	for i, band := range bands {
		if band.Label == "" {
			return nil, fmt.Errorf("title band %d has an empty label", i)
		}
		if i > 0 && band.MinScore <= bands[i-1].MinScore {
			return nil, fmt.Errorf("title thresholds must be strictly ascending, got %d after %d",
				band.MinScore, bands[i-1].MinScore)
		}
	}

	table := &TitleTable{bands: make([]TitleBand, len(bands))}
	copy(table.bands, bands)
	return table, nil
}

// Classify returns the label of the greatest threshold not exceeding score.
// Negative scores fall into the first band.
func (t *TitleTable) Classify(score int) string {
	idx := sort.Search(len(t.bands), func(i int) bool {
		return t.bands[i].MinScore > score
	})
	if idx == 0 {
		return t.bands[0].Label
	}
	return t.bands[idx-1].Label
}
