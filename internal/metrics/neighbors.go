package metrics

import "github.com/san-kum/vicsek/internal/vicsek"

// MeanNeighbors is the neighbor-set size averaged over particles and
// steps.
type MeanNeighbors struct {
	name    string
	total   float64
	samples int
}

func NewMeanNeighbors() *MeanNeighbors {
	return &MeanNeighbors{name: "mean_neighbors"}
}

func (m *MeanNeighbors) Name() string { return m.name }

func (m *MeanNeighbors) Observe(f *vicsek.Frame) {
	if len(f.Neighbors) == 0 {
		return
	}
	links := 0
	for _, nb := range f.Neighbors {
		links += len(nb)
	}
	m.total += float64(links) / float64(len(f.Neighbors))
	m.samples++
}

func (m *MeanNeighbors) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanNeighbors) Reset() {
	m.total = 0
	m.samples = 0
}

// Isolated is the fraction of particles without any neighbor, averaged
// over steps. Isolated particles only diffuse under noise.
type Isolated struct {
	name    string
	total   float64
	samples int
}

func NewIsolated() *Isolated {
	return &Isolated{name: "isolated"}
}

func (m *Isolated) Name() string { return m.name }

func (m *Isolated) Observe(f *vicsek.Frame) {
	if len(f.Neighbors) == 0 {
		return
	}
	alone := 0
	for _, nb := range f.Neighbors {
		if len(nb) == 0 {
			alone++
		}
	}
	m.total += float64(alone) / float64(len(f.Neighbors))
	m.samples++
}

func (m *Isolated) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *Isolated) Reset() {
	m.total = 0
	m.samples = 0
}
