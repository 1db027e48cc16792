package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/vicsek/internal/torus"
	"github.com/san-kum/vicsek/internal/vicsek"
	"github.com/san-kum/vicsek/internal/viz"
)

const (
	arrowLength = 8.0
	arrowWidth  = 4.0
	background  = "#0a0a0a"
)

// Snapshot is everything needed to draw one frame of a flock.
type Snapshot struct {
	Domain     torus.Domain
	Iteration  int
	Phi        float64
	Particles  []vicsek.Particle
	Neighbors  [][]int
	LocalOrder []float64
	Trails     [][]r2.Vec
}

// FromSimulation captures the current frame of sim.
func FromSimulation(sim *vicsek.Simulation) Snapshot {
	st := sim.State()
	return Snapshot{
		Domain:     sim.Domain(),
		Iteration:  st.Iteration,
		Phi:        st.CurrentPhi,
		Particles:  st.Particles,
		Neighbors:  sim.Neighbors(),
		LocalOrder: sim.LocalOrder(),
		Trails:     sim.Trails(),
	}
}

// Options control what WriteSVG draws. Scale is pixels per domain unit.
type Options struct {
	Scale      float64
	Trails     bool
	Links      bool
	Velocities bool
}

func DefaultOptions() Options {
	return Options{Scale: 4, Trails: true}
}

// HueFor maps local order in [0,1] to a hue from 120 to 240 degrees.
func HueFor(local float64) float64 {
	return 120 + 120*math.Max(0, math.Min(1, local))
}

// WriteSVG renders snap as particles drawn as arrows along their heading,
// colored by local order. The y axis points up. Trails and links that
// cross the border are drawn the short way and clipped by the viewport.
func WriteSVG(w io.Writer, snap Snapshot, opts Options) error {
	if opts.Scale <= 0 {
		opts.Scale = DefaultOptions().Scale
	}
	s := opts.Scale
	width := snap.Domain.Width * s
	height := snap.Domain.Height * s
	px := func(v r2.Vec) (float64, float64) { return v.X * s, height - v.Y*s }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<!-- iteration %d, phi %.6f -->
`, width, height, width, height, background, snap.Iteration, snap.Phi))

	segment := func(a, b r2.Vec) {
		to := r2.Add(a, snap.Domain.Displacement(a, b))
		x0, y0 := px(a)
		x1, y1 := px(to)
		sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>
`, x0, y0, x1, y1))
	}

	if opts.Trails && len(snap.Trails) > 0 {
		sb.WriteString(`<g stroke="rgb(100,150,255)" stroke-opacity="0.3" stroke-width="1">` + "\n")
		for _, trail := range snap.Trails {
			for k := 1; k < len(trail); k++ {
				segment(trail[k-1], trail[k])
			}
		}
		sb.WriteString("</g>\n")
	}

	if opts.Links && len(snap.Neighbors) > 0 {
		sb.WriteString(`<g stroke="#ffffff" stroke-opacity="0.1" stroke-width="0.5">` + "\n")
		for i, nb := range snap.Neighbors {
			for _, j := range nb {
				if j > i {
					segment(snap.Particles[i].Pos, snap.Particles[j].Pos)
				}
			}
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString(`<g stroke="#ffffff" stroke-width="0.5">` + "\n")
	for i, p := range snap.Particles {
		local := 0.0
		if i < len(snap.LocalOrder) {
			local = snap.LocalOrder[i]
		}
		x, y := px(p.Pos)
		deg := -p.Theta * 180 / math.Pi
		sb.WriteString(fmt.Sprintf(`<g transform="translate(%.2f %.2f) rotate(%.2f)">`, x, y, deg))
		sb.WriteString(fmt.Sprintf(`<polygon points="%g,0 %g,%g %g,%g" fill="hsl(%.0f,70%%,60%%)"/>`,
			arrowLength, -arrowLength/2, arrowWidth, -arrowLength/2, -arrowWidth, HueFor(local)))
		if opts.Velocities {
			sb.WriteString(fmt.Sprintf(`<line x2="%g" stroke="#ffff00" stroke-width="2"/>`, arrowLength*1.5))
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// CanvasToSVG converts a Braille canvas to SVG format. Cells are colored by
// their level through colors; cells without a level use fallback.
func CanvasToSVG(canvas *viz.Canvas, scale float64, colors map[int8]string, fallback string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))

	// Braille dot-to-bit mapping
	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			fill, ok := colors[canvas.Level[row][col]]
			if !ok {
				fill = fallback
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, dotRadius, fill))
					}
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// PhiToSVG plots an order-parameter series on a fixed [0,1] axis.
func PhiToSVG(phi []float64, width, height int, strokeColor string) string {
	if len(phi) < 2 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, strokeColor))

	step := float64(width) / float64(len(phi)-1)
	for i, v := range phi {
		x := float64(i) * step
		y := float64(height) * (1 - math.Max(0, math.Min(1, v)))
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
