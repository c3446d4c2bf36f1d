package projection

import (
	"errors"
	"fmt"

	"blackjackviz/models"
)

// ErrIndexOutOfRange is returned when a state falls outside the grid: a dealer
// card outside [1, 10] or a player sum above 21. Such states are never wrapped
// or truncated onto the grid.
var ErrIndexOutOfRange = errors.New("state index out of range")

// Scalar is any numeric mapping value; Action codes qualify.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Grids holds the two projections of a mapping, split on the usable-ace flag.
type Grids struct {
	Ace   *Grid
	NoAce *Grid
}

// Project writes every mapping entry with a plotted player sum into the grid
// selected by its usable-ace flag. Entries below the plotted sums are skipped.
// Each entry owns exactly one cell, so map iteration order does not matter.
func Project[V Scalar](mapping map[models.State]V) (*Grids, error) {
	grids := &Grids{
		Ace:   NewGrid(),
		NoAce: NewGrid(),
	}

	for state, value := range mapping {
		if state.PlayerSum < models.MIN_PLOTTED_SUM {
			continue
		}

		row, col := Cell(state)
		if !inBounds(row, col) {
			return nil, fmt.Errorf("%w: state %v maps to cell [%d][%d] of a %dx%d grid",
				ErrIndexOutOfRange, state, row, col, Rows, Cols)
		}

		target := grids.NoAce
		if state.UsableAce {
			target = grids.Ace
		}
		target.put(row, col, float64(value))
	}

	return grids, nil
}
