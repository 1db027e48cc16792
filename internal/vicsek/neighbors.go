package vicsek

import (
	"math"
	"slices"

	"github.com/san-kum/vicsek/internal/torus"
)

// FindNeighbors returns, for every particle, the ascending indices of all
// other particles within radius under toroidal distance. A particle never
// lists itself. The relation is symmetric because Distance is.
func FindNeighbors(ps []Particle, d torus.Domain, radius float64, method SearchMethod, workers int) [][]int {
	return findNeighbors(nil, ps, d, radius, method, workers)
}

// findNeighbors reuses the backing arrays of dst when it has the right
// length.
func findNeighbors(dst [][]int, ps []Particle, d torus.Domain, radius float64, method SearchMethod, workers int) [][]int {
	n := len(ps)
	if len(dst) != n {
		dst = make([][]int, n)
	}

	if method == SearchGrid {
		if g := newCellGrid(d, radius, n); g != nil {
			g.fill(ps)
			parallelFor(n, workers, func(start, end int) {
				for i := start; i < end; i++ {
					dst[i] = g.query(dst[i][:0], i, ps, d, radius)
				}
			})
			return dst
		}
	}

	parallelFor(n, workers, func(start, end int) {
		for i := start; i < end; i++ {
			list := dst[i][:0]
			pi := ps[i].Pos
			for j := range ps {
				if j == i {
					continue
				}
				if d.Distance(pi, ps[j].Pos) <= radius {
					list = append(list, j)
				}
			}
			dst[i] = list
		}
	})
	return dst
}

// cellGrid is a toroidal cell list with cells at least radius wide, so all
// neighbors of a particle lie in its own or the 8 surrounding cells.
type cellGrid struct {
	cols, rows   int
	cellW, cellH float64
	cells        [][]int
	home         []int
}

// newCellGrid returns nil when the grid would have fewer than 3 cells on
// an axis; the 3×3 neighborhood would then visit a cell twice. Each axis is
// capped at ⌈√n⌉ cells (at least 3) so a tiny radius cannot blow up the
// cell count; capping only widens cells.
func newCellGrid(d torus.Domain, radius float64, n int) *cellGrid {
	maxCells := max(3, int(math.Ceil(math.Sqrt(float64(n)))))
	cols, ok := cellsPerAxis(d.Width, radius, maxCells)
	if !ok {
		return nil
	}
	rows, ok := cellsPerAxis(d.Height, radius, maxCells)
	if !ok {
		return nil
	}
	return &cellGrid{
		cols:  cols,
		rows:  rows,
		cellW: d.Width / float64(cols),
		cellH: d.Height / float64(rows),
		cells: make([][]int, cols*rows),
	}
}

func cellsPerAxis(size, radius float64, maxCells int) (int, bool) {
	ratio := size / radius
	if math.IsNaN(ratio) || ratio < 3 {
		return 0, false
	}
	if ratio >= float64(maxCells) {
		return maxCells, true
	}
	return int(ratio), true
}

func (g *cellGrid) cellOf(x, y float64) (int, int) {
	col := int(x / g.cellW)
	row := int(y / g.cellH)
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

func (g *cellGrid) fill(ps []Particle) {
	g.home = make([]int, len(ps))
	for i, p := range ps {
		col, row := g.cellOf(p.Pos.X, p.Pos.Y)
		idx := row*g.cols + col
		g.cells[idx] = append(g.cells[idx], i)
		g.home[i] = idx
	}
}

func (g *cellGrid) query(list []int, i int, ps []Particle, d torus.Domain, radius float64) []int {
	col, row := g.home[i]%g.cols, g.home[i]/g.cols
	pi := ps[i].Pos
	for dr := -1; dr <= 1; dr++ {
		r := (row + dr + g.rows) % g.rows
		for dc := -1; dc <= 1; dc++ {
			c := (col + dc + g.cols) % g.cols
			for _, j := range g.cells[r*g.cols+c] {
				if j == i {
					continue
				}
				if d.Distance(pi, ps[j].Pos) <= radius {
					list = append(list, j)
				}
			}
		}
	}
	slices.Sort(list)
	return list
}
