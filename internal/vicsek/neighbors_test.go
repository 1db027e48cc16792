package vicsek

import (
	"fmt"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/rng"
	"github.com/san-kum/vicsek/internal/torus"
)

func randomParticles(n int, d torus.Domain, seed int64) []Particle {
	cfg := DefaultConfig()
	cfg.ParticleCount = n
	return initParticles(cfg, d, rng.New(seed))
}

func TestFindNeighborsSymmetric(t *testing.T) {
	d := torus.Domain{Width: 50, Height: 30}
	ps := randomParticles(250, d, 3)

	for _, method := range []SearchMethod{SearchBrute, SearchGrid} {
		t.Run(string(method), func(t *testing.T) {
			nb := FindNeighbors(ps, d, 4, method, 1)
			for i, list := range nb {
				if !slices.IsSorted(list) {
					t.Fatalf("list of %d not ascending: %v", i, list)
				}
				for _, j := range list {
					if j == i {
						t.Fatalf("particle %d lists itself", i)
					}
					if _, ok := slices.BinarySearch(nb[j], i); !ok {
						t.Fatalf("%d lists %d but not the reverse", i, j)
					}
				}
			}
		})
	}
}

func TestGridSearchMatchesBrute(t *testing.T) {
	tests := []struct {
		name   string
		domain torus.Domain
		n      int
		radius float64
	}{
		{"sparse", torus.Domain{Width: 160, Height: 100}, 300, 5},
		{"dense", torus.Domain{Width: 20, Height: 20}, 400, 2.5},
		{"uneven cells", torus.Domain{Width: 37.3, Height: 11.9}, 200, 3.3},
		{"fallback on narrow axis", torus.Domain{Width: 100, Height: 8}, 150, 3},
		{"radius exceeds domain", torus.Domain{Width: 10, Height: 10}, 50, 40},
		{"tiny radius", torus.Domain{Width: 160, Height: 100}, 300, 1e-6},
		{"just above three cells", torus.Domain{Width: 30.3, Height: 30.3}, 120, 10},
		{"capped cells", torus.Domain{Width: 160, Height: 100}, 50, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := randomParticles(tt.n, tt.domain, 11)
			brute := FindNeighbors(ps, tt.domain, tt.radius, SearchBrute, 1)
			for _, workers := range []int{1, 4} {
				grid := FindNeighbors(ps, tt.domain, tt.radius, SearchGrid, workers)
				for i := range brute {
					if !slices.Equal(brute[i], grid[i]) {
						t.Fatalf("workers=%d particle %d: brute %v, grid %v", workers, i, brute[i], grid[i])
					}
				}
			}
		})
	}
}

func TestCellGridBounded(t *testing.T) {
	d := torus.Domain{Width: 160, Height: 100}
	tests := []struct {
		name       string
		radius     float64
		n          int
		cols, rows int
	}{
		{"tiny radius", 1e-6, 10, 4, 4},
		{"tiny radius few particles", 1e-6, 2, 3, 3},
		{"uncapped", 20, 10000, 8, 5},
		{"capped", 5, 400, 20, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newCellGrid(d, tt.radius, tt.n)
			if g == nil {
				t.Fatal("expected a grid")
			}
			if g.cols != tt.cols || g.rows != tt.rows {
				t.Errorf("expected %dx%d cells, got %dx%d", tt.cols, tt.rows, g.cols, g.rows)
			}
			if g.cellW < tt.radius || g.cellH < tt.radius {
				t.Errorf("cells %.3fx%.3f narrower than radius %g", g.cellW, g.cellH, tt.radius)
			}
		})
	}

	if g := newCellGrid(d, 0, 10); g == nil || g.cols != 4 {
		t.Errorf("expected a capped grid for an infinite ratio, got %+v", g)
	}
}

func TestStepWithTinyGridRadius(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParticleCount = 10
	cfg.InteractionRadius = 1e-6
	cfg.NeighborSearch = SearchGrid

	s, err := NewWithConfig(cfg, torus.Domain{Width: 160, Height: 100})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	for range 3 {
		s.Step()
	}
	if s.Iteration() != 3 {
		t.Errorf("expected iteration 3, got %d", s.Iteration())
	}
	for i, nb := range s.Neighbors() {
		if len(nb) != 0 {
			t.Errorf("particle %d: expected no neighbors, got %v", i, nb)
		}
	}
}

func TestFindNeighborsAcrossBoundary(t *testing.T) {
	d := torus.Domain{Width: 10, Height: 10}
	ps := []Particle{
		{Pos: r2.Vec{X: 0.5, Y: 5}},
		{Pos: r2.Vec{X: 9.5, Y: 5}},
		{Pos: r2.Vec{X: 5, Y: 5}},
	}

	nb := FindNeighbors(ps, d, 1.0, SearchBrute, 1)
	if !slices.Equal(nb[0], []int{1}) || !slices.Equal(nb[1], []int{0}) {
		t.Errorf("expected wrap-around neighbors, got %v", nb)
	}
	if len(nb[2]) != 0 {
		t.Errorf("expected isolated particle, got %v", nb[2])
	}
}

func TestFindNeighborsInclusiveRadius(t *testing.T) {
	d := torus.Domain{Width: 100, Height: 100}
	ps := []Particle{
		{Pos: r2.Vec{X: 10, Y: 10}},
		{Pos: r2.Vec{X: 13, Y: 14}},
	}

	if nb := FindNeighbors(ps, d, 5, SearchBrute, 1); len(nb[0]) != 1 {
		t.Errorf("distance equal to radius must count, got %v", nb)
	}
	if nb := FindNeighbors(ps, d, 4.999, SearchBrute, 1); len(nb[0]) != 0 {
		t.Errorf("expected no neighbors, got %v", nb)
	}
}

func TestFindNeighborsReusesBuffers(t *testing.T) {
	d := torus.Domain{Width: 40, Height: 40}
	ps := randomParticles(100, d, 5)

	first := findNeighbors(nil, ps, d, 6, SearchBrute, 1)
	want := make([][]int, len(first))
	for i := range first {
		want[i] = slices.Clone(first[i])
	}

	again := findNeighbors(first, ps, d, 6, SearchGrid, 1)
	for i := range want {
		if !slices.Equal(want[i], again[i]) {
			t.Fatalf("particle %d: %v vs %v", i, want[i], again[i])
		}
	}
}

func BenchmarkFindNeighbors(b *testing.B) {
	d := torus.Domain{Width: 160, Height: 100}
	for _, n := range []int{300, 2000} {
		ps := randomParticles(n, d, 42)
		for _, method := range []SearchMethod{SearchBrute, SearchGrid} {
			b.Run(fmt.Sprintf("%s/%d", method, n), func(b *testing.B) {
				var dst [][]int
				for i := 0; i < b.N; i++ {
					dst = findNeighbors(dst, ps, d, 5, method, 1)
				}
			})
		}
	}
}

func BenchmarkStep(b *testing.B) {
	cfg := DefaultConfig()
	cfg.NeighborSearch = SearchGrid
	s, err := NewWithConfig(cfg, torus.Domain{Width: 160, Height: 100})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Step()
	}
}
