// Package chart renders score breakdowns as PNG bar charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/dawgbowl/internal/domain/model"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no scores to chart")

const (
	width    = 800
	height   = 400
	barWidth = 60
	headroom = 1.1
)

var (
	flexColor    = drawing.ColorFromHex("4a7c59")
	captainColor = drawing.ColorFromHex("d4a017")
)

// Label is the bar caption for one scored member. Captains are marked.
func Label(r model.ScoredResult) string {
	if r.Slot == model.SlotCaptain {
		return r.Name + " (C)"
	}
	return r.Name
}

// RenderBreakdown draws one bar per member, in breakdown order, using the
// final (post-multiplier) score.
func RenderBreakdown(title string, breakdown []model.ScoredResult) ([]byte, error) {
	if len(breakdown) == 0 {
		return nil, ErrNoData
	}

	top := 0.0
	bars := make([]chart.Value, len(breakdown))
	for i, r := range breakdown {
		fill := flexColor
		if r.Slot == model.SlotCaptain {
			fill = captainColor
		}
		bars[i] = chart.Value{
			Label: Label(r),
			Value: r.Final,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
		top = max(top, r.Final)
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    width,
		Height:   height,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * headroom},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render breakdown chart: %w", err)
	}
	return buf.Bytes(), nil
}
