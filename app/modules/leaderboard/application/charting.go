package leaderboardservice

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// RenderTopChart produces a PNG bar chart of the window's top n users by
// total points.
func (s *LeaderboardService) RenderTopChart(ctx context.Context, timeRange shared.TimeRange, n int) ([]byte, error) {
	return withTelemetry(s, ctx, "render_top_chart", func(ctx context.Context) ([]byte, error) {
		if n < 1 {
			n = 10
		}
		if n > shared.MaxPageSize {
			n = shared.MaxPageSize
		}

		page, err := s.GetLeaderboard(ctx, Query{
			TimeRange: timeRange,
			Page:      1,
			PageSize:  n,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Entries) == 0 {
			return renderNoDataPlaceholder()
		}

		bars := make([]chart.Value, 0, len(page.Entries))
		for _, e := range page.Entries {
			bars = append(bars, chart.Value{
				Label: e.DisplayName,
				Value: float64(e.TotalPoints),
			})
		}

		graph := chart.BarChart{
			Title:  fmt.Sprintf("Top contributors (%s)", page.TimeRange),
			Width:  800,
			Height: 400,
			Bars:   bars,
			XAxis: chart.Style{
				TextRotationDegrees: 45,
			},
		}

		buffer := bytes.NewBuffer(nil)
		if err := graph.Render(chart.PNG, buffer); err != nil {
			return nil, fmt.Errorf("failed to render leaderboard chart: %w", err)
		}
		return buffer.Bytes(), nil
	})
}

func renderNoDataPlaceholder() ([]byte, error) {
	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
				},
			},
		},
	}
	buffer := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render placeholder chart: %w", err)
	}
	return buffer.Bytes(), nil
}
