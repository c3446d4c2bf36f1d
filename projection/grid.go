// projection remaps sparse blackjack state mappings onto the dense grids that the
// heatmaps are drawn from.
package projection

import (
	"math"

	"blackjackviz/models"

	"gonum.org/v1/gonum/mat"
)

// Grid dimensions: one row per plotted player sum, one column per dealer card.
const (
	Rows = models.MAX_PLAYER_SUM - models.MIN_PLOTTED_SUM + 1
	Cols = models.MAX_DEALER_CARD - models.MIN_DEALER_CARD + 1
)

// Grid is a fixed Rows x Cols matrix of values. Row 0 holds player sum 21 and
// row Rows-1 player sum 12, so the grid is flipped relative to ascending sums;
// column c holds dealer card c+1. Cells never written read as zero, which is
// indistinguishable from a written zero except through IsSet.
type Grid struct {
	data *mat.Dense
	set  [Rows][Cols]bool
}

// NewGrid returns an all-zero grid.
func NewGrid() *Grid {
	return &Grid{data: mat.NewDense(Rows, Cols, nil)}
}

// Dims returns the grid shape, which is always Rows x Cols.
func (g *Grid) Dims() (rows, cols int) {
	return g.data.Dims()
}

// At returns the value at row r and column c.
func (g *Grid) At(r, c int) float64 {
	return g.data.At(r, c)
}

// IsSet reports whether a mapping entry was written to the cell.
func (g *Grid) IsSet(r, c int) bool {
	return g.set[r][c]
}

// Matrix exposes the grid as a read-only gonum matrix.
func (g *Grid) Matrix() mat.Matrix {
	return g.data
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []float64 {
	return mat.Row(nil, r, g.data)
}

// Range returns the min and max over the finite cells, including unset (zero)
// cells since those are drawn as zero. NaN and infinite cells have no place in a
// colour domain and are skipped; a grid with no finite cell reports (0, 0).
func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.data.RawMatrix().Data {
		if !isFinite(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if lo > hi {
		return 0, 0
	}
	return
}

// Equal reports whether both grids hold the same values.
func (g *Grid) Equal(other *Grid) bool {
	return mat.Equal(g.data, other.data)
}

func (g *Grid) put(r, c int, v float64) {
	g.data.Set(r, c, v)
	g.set[r][c] = true
}

// Cell returns the grid row and column of a state with a plotted player sum.
func Cell(s models.State) (row, col int) {
	return models.MAX_PLAYER_SUM - s.PlayerSum, s.DealerCard - models.MIN_DEALER_CARD
}

// PlayerSum is the inverse of Cell for rows: the player sum drawn on row r.
func PlayerSum(r int) int {
	return models.MAX_PLAYER_SUM - r
}

// DealerCard is the inverse of Cell for columns: the dealer card drawn on column c.
func DealerCard(c int) int {
	return c + models.MIN_DEALER_CARD
}

func inBounds(r, c int) bool {
	return r >= 0 && r < Rows && c >= 0 && c < Cols
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
