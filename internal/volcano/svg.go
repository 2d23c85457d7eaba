package volcano

import (
	"bytes"
	"fmt"
	"strconv"

	g "maragu.dev/gomponents"
)

// Publication palette.
const (
	ColorUp   = "#E64B35"
	ColorDown = "#4DBBD5"
	ColorNS   = "#999999"
)

// Legend and axis text. The chart mimics an English-language journal figure in both locales.
const (
	LabelUp     = "Significantly Up-Regulated"
	LabelDown   = "Significantly Down-Regulated"
	LabelNS     = "No Significant Change"
	LabelXAxis  = "Log2 Fold-Change"
	LabelYAxis  = "-log10(Padj)"
	FoldChangeX = 1.0
)

const (
	width        = 640.0
	height       = 480.0
	marginLeft   = 56.0
	marginRight  = 16.0
	marginTop    = 16.0
	marginBottom = 48.0
	plotWidth    = width - marginLeft - marginRight
	plotHeight   = height - marginTop - marginBottom
)

type style struct {
	color   string
	opacity string
	radius  string
}

var styles = map[Category]style{
	Up:             {color: ColorUp, opacity: "0.7", radius: "1.5"},
	Down:           {color: ColorDown, opacity: "0.7", radius: "1.5"},
	NotSignificant: {color: ColorNS, opacity: "0.5", radius: "1"},
}

// XTicks and YTicks are the labelled grid positions in data units.
func XTicks() []float64 { return ticks(XMin, XMax, 2) }
func YTicks() []float64 { return ticks(YMin, YMax, 50) }

func ticks(from, to, step float64) []float64 {
	var out []float64
	for v := from; v <= to; v += step {
		out = append(out, v)
	}
	return out
}

func px(x float64) float64 { return marginLeft + (x-XMin)/(XMax-XMin)*plotWidth }
func py(y float64) float64 { return marginTop + (1-(y-YMin)/(YMax-YMin))*plotHeight }

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// Chart renders points as a standalone SVG document node.
func Chart(points []Point) g.Node {
	return g.El("svg",
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("viewBox", fmt.Sprintf("0 0 %d %d", int(width), int(height))),
		g.Attr("preserveAspectRatio", "xMidYMid meet"),
		g.Attr("role", "img"),
		g.Attr("aria-label", "Volcano plot: "+LabelXAxis+" vs "+LabelYAxis),
		g.Attr("font-family", "Helvetica, Arial, sans-serif"),
		g.El("rect", g.Attr("width", num(width)), g.Attr("height", num(height)), g.Attr("fill", "#ffffff")),
		grid(),
		referenceLines(),
		g.El("g", g.Attr("class", "points"),
			g.Group(g.Map(points, point)),
		),
		axes(),
		legend(),
	)
}

func point(p Point) g.Node {
	s, ok := styles[p.Category]
	if !ok {
		s = styles[NotSignificant]
	}
	return g.El("circle",
		g.Attr("cx", num(px(p.X))),
		g.Attr("cy", num(py(p.Y))),
		g.Attr("r", s.radius),
		g.Attr("fill", s.color),
		g.Attr("fill-opacity", s.opacity),
		g.Attr("data-type", string(p.Category)),
	)
}

func line(x1, y1, x2, y2 float64, extra ...g.Node) g.Node {
	nodes := []g.Node{
		g.Attr("x1", num(x1)), g.Attr("y1", num(y1)),
		g.Attr("x2", num(x2)), g.Attr("y2", num(y2)),
	}
	return g.El("line", append(nodes, extra...)...)
}

func grid() g.Node {
	var nodes []g.Node
	for _, x := range XTicks() {
		nodes = append(nodes, line(px(x), py(YMin), px(x), py(YMax)))
	}
	for _, y := range YTicks() {
		nodes = append(nodes, line(px(XMin), py(y), px(XMax), py(y)))
	}
	return g.El("g",
		g.Attr("class", "grid"),
		g.Attr("stroke", "#000000"),
		g.Attr("stroke-opacity", "0.1"),
		g.Attr("stroke-width", "1"),
		g.Group(nodes),
	)
}

func referenceLines() g.Node {
	return g.El("g",
		g.Attr("class", "thresholds"),
		g.Attr("stroke", "#666666"),
		g.Attr("stroke-dasharray", "4 4"),
		g.Attr("stroke-opacity", "0.6"),
		line(px(-FoldChangeX), py(YMin), px(-FoldChangeX), py(YMax)),
		line(px(FoldChangeX), py(YMin), px(FoldChangeX), py(YMax)),
		line(px(XMin), py(0), px(XMax), py(0)),
	)
}

func axes() g.Node {
	var labels []g.Node
	for _, x := range XTicks() {
		labels = append(labels, g.El("text",
			g.Attr("x", num(px(x))), g.Attr("y", num(py(YMin)+16)),
			g.Attr("text-anchor", "middle"),
			g.Text(strconv.Itoa(int(x))),
		))
	}
	for _, y := range YTicks() {
		labels = append(labels, g.El("text",
			g.Attr("x", num(marginLeft-8)), g.Attr("y", num(py(y)+4)),
			g.Attr("text-anchor", "end"),
			g.Text(strconv.Itoa(int(y))),
		))
	}
	return g.El("g",
		g.Attr("class", "axes"),
		g.Attr("font-size", "11"),
		g.Attr("fill", "#333333"),
		line(px(XMin), py(YMin), px(XMax), py(YMin), g.Attr("stroke", "#333333")),
		line(px(XMin), py(YMin), px(XMin), py(YMax), g.Attr("stroke", "#333333")),
		g.Group(labels),
		g.El("text",
			g.Attr("x", num(marginLeft+plotWidth/2)), g.Attr("y", num(height-10)),
			g.Attr("text-anchor", "middle"), g.Attr("font-size", "13"),
			g.Text(LabelXAxis),
		),
		g.El("text",
			g.Attr("transform", fmt.Sprintf("translate(16 %s) rotate(-90)", num(marginTop+plotHeight/2))),
			g.Attr("text-anchor", "middle"), g.Attr("font-size", "13"),
			g.Text(LabelYAxis),
		),
	)
}

type legendEntry struct {
	label string
	style style
}

func legend() g.Node {
	entries := []legendEntry{
		{LabelUp, styles[Up]},
		{LabelDown, styles[Down]},
		{LabelNS, styles[NotSignificant]},
	}
	x := marginLeft + 12
	return g.El("g",
		g.Attr("class", "legend"),
		g.Attr("font-size", "11"),
		g.El("rect",
			g.Attr("x", num(x-6)), g.Attr("y", num(marginTop+6)),
			g.Attr("width", "200"), g.Attr("height", "64"),
			g.Attr("fill", "#ffffff"), g.Attr("fill-opacity", "0.85"),
			g.Attr("stroke", "#dddddd"),
		),
		g.Group(g.Map(entries, func(e legendEntry) g.Node {
			return e.node(x)
		})),
	)
}

func (e legendEntry) node(x float64) g.Node {
	var row float64
	switch e.label {
	case LabelDown:
		row = 1
	case LabelNS:
		row = 2
	}
	y := marginTop + 22 + row*18
	return g.El("g",
		g.El("circle",
			g.Attr("cx", num(x+4)), g.Attr("cy", num(y-4)), g.Attr("r", "4"),
			g.Attr("fill", e.style.color), g.Attr("fill-opacity", e.style.opacity),
		),
		g.El("text", g.Attr("x", num(x+14)), g.Attr("y", num(y)), g.Attr("fill", "#333333"), g.Text(e.label)),
	)
}

// SVG renders the chart for points to a byte slice.
func SVG(points []Point) ([]byte, error) {
	var buf bytes.Buffer
	if err := Chart(points).Render(&buf); err != nil {
		return nil, fmt.Errorf("volcano: render: %w", err)
	}
	return buf.Bytes(), nil
}
