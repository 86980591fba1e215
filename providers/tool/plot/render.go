package plot

import (
	"bytes"
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	gonum "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Canvas size of every chart.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

const maxBarWidth = 40 // points

// series is the points of one group, or of the whole table when ungrouped.
type series struct {
	name   string
	points []point
}

// split groups pts by their group value, in ascending key order. Rows with
// an empty group value are left out. Empty input yields no series.
func split(pts []point, grouped bool) []series {
	if len(pts) == 0 {
		return nil
	}
	if !grouped {
		return []series{{points: pts}}
	}

	byKey := make(map[string][]point)
	for _, pt := range pts {
		if pt.group != "" {
			byKey[pt.group] = append(byKey[pt.group], pt)
		}
	}
	keys := slices.SortedFunc(maps.Keys(byKey), compareKeys)
	out := make([]series, 0, len(keys))
	for _, key := range keys {
		out = append(out, series{name: key, points: byKey[key]})
	}
	return out
}

// compareKeys orders numbers numerically and before any other text.
func compareKeys(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(fa, fb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// categories returns the distinct x values in first-seen order and their positions.
func categories(all []series) ([]string, map[string]int) {
	var names []string
	index := make(map[string]int)
	for _, s := range all {
		for _, pt := range s.points {
			if _, ok := index[pt.x]; !ok {
				index[pt.x] = len(names)
				names = append(names, pt.x)
			}
		}
	}
	return names, index
}

func numericX(all []series) bool {
	for _, s := range all {
		for _, pt := range s.points {
			if _, ok := number(pt.x); !ok {
				return false
			}
		}
	}
	return true
}

func render(kind Kind, all []series, xLabel, yLabel string) ([]byte, error) {
	p := gonum.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	var err error
	switch kind {
	case KindLine:
		p.Title.Text = "Line Chart"
		err = addLines(p, all)
	case KindBar:
		p.Title.Text = "Bar Chart"
		err = addBars(p, all)
	default:
		err = fmt.Errorf("unknown plot kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	w, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// addLines draws one line per series in row order. X values are used as
// coordinates when all of them are numbers, as evenly spaced labels otherwise.
func addLines(p *gonum.Plot, all []series) error {
	numeric := numericX(all)
	var index map[string]int
	if !numeric {
		var names []string
		names, index = categories(all)
		p.NominalX(names...)
	}

	for i, s := range all {
		xys := make(plotter.XYs, len(s.points))
		for j, pt := range s.points {
			x := float64(index[pt.x])
			if numeric {
				x, _ = number(pt.x)
			}
			xys[j] = plotter.XY{X: x, Y: pt.y}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		if s.name != "" {
			p.Legend.Add(s.name, line)
		}
	}
	return nil
}

// addBars draws the series side by side at each x category. A category a
// series lacks gets a zero bar; a repeated category keeps its last value.
func addBars(p *gonum.Plot, all []series) error {
	names, index := categories(all)
	width := barWidth(len(names), len(all))

	for i, s := range all {
		values := make(plotter.Values, len(names))
		for _, pt := range s.points {
			values[index[pt.x]] = pt.y
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(len(all)-1)/2) * width
		p.Add(bars)
		if s.name != "" {
			p.Legend.Add(s.name, bars)
		}
	}
	p.NominalX(names...)
	return nil
}

func barWidth(categories, groups int) vg.Length {
	w := (Width - vg.Inch) * 0.8 / vg.Length(categories*groups)
	return min(w, vg.Points(maxBarWidth))
}
