// Package volcano produces the mock differential-expression point cloud drawn in
// the comparison slider. Output depends only on the seed.
package volcano

import "math"

// Category tags a point as up-regulated, down-regulated or not significant.
type Category string

const (
	Up             Category = "up"
	Down           Category = "down"
	NotSignificant Category = "ns"
)

const (
	// DefaultSeed is the seed both chart panels use.
	DefaultSeed int64 = 42

	nsCount           = 250
	upCount           = 120
	downCount         = 90
	transitionalCount = 30

	// Total is the fixed number of points Generate returns.
	Total = nsCount + upCount + downCount + transitionalCount

	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// Axis bounds in data units.
const (
	XMin = -10.0
	XMax = 10.0
	YMin = 0.0
	YMax = 300.0
)

// Point is one gene in the plot.
type Point struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Category Category `json:"type"`
}

// Position maps the point onto [0,100] percentages of the plot area. Y grows upward.
func (p Point) Position() (xPercent, yPercent float64) {
	return (p.X - XMin) / (XMax - XMin) * 100, (p.Y - YMin) / (YMax - YMin) * 100
}

type lcg struct {
	state int64
}

// Seeds are folded into [0, modulus) so negative and very large seeds stay valid.
func newLCG(seed int64) *lcg {
	s := seed % lcgModulus
	if s < 0 {
		s += lcgModulus
	}
	return &lcg{state: s}
}

func (g *lcg) next() float64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.state) / lcgModulus
}

// Generate returns Total points in a fixed order: the not-significant core,
// the up-regulated cloud, the down-regulated cloud and a small batch near the
// fold-change thresholds.
func Generate(seed int64) []Point {
	rng := newLCG(seed)
	points := make([]Point, 0, Total)

	for i := 0; i < nsCount; i++ {
		baseX := (rng.next() - 0.5) * 2.5
		x := baseX + (rng.next()-0.5)*0.5
		y := math.Pow(rng.next(), 2)*80 + rng.next()*20
		points = append(points, Point{X: x, Y: y, Category: NotSignificant})
	}

	// higher points drift further from the threshold
	for i := 0; i < upCount; i++ {
		y := 20 + math.Pow(rng.next(), 0.25)*280
		radial := (y - 20) / 280
		baseX := 1 + radial*2.5
		spread := rng.next()*2.5 + math.Pow(rng.next(), 0.7)*2
		points = append(points, Point{X: baseX + spread, Y: y, Category: Up})
	}

	for i := 0; i < downCount; i++ {
		y := 20 + math.Pow(rng.next(), 0.25)*280
		radial := (y - 20) / 280
		baseX := -1 - radial*1.5
		spread := rng.next()*1.5 + math.Pow(rng.next(), 0.8)*1.5
		points = append(points, Point{X: baseX - spread, Y: y, Category: Down})
	}

	for i := 0; i < transitionalCount; i++ {
		y := 10 + rng.next()*40
		if rng.next() > 0.5 {
			points = append(points, Point{X: 1 + rng.next()*1.5, Y: y, Category: Up})
		} else {
			points = append(points, Point{X: -1 - rng.next()*1.5, Y: y, Category: Down})
		}
	}
	return points
}

// Counts tallies points per category.
type Counts struct {
	Up             int `json:"up"`
	Down           int `json:"down"`
	NotSignificant int `json:"ns"`
}

// Summarize counts points by category.
func Summarize(points []Point) Counts {
	var c Counts
	for _, p := range points {
		switch p.Category {
		case Up:
			c.Up++
		case Down:
			c.Down++
		default:
			c.NotSignificant++
		}
	}
	return c
}
