package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparklineBlocks are block characters for 8 vertical levels, lowest first.
var sparklineBlocks = []rune("▁▂▃▄▅▆▇█")

// RenderSparkline draws the newest width points of data with block
// characters. Percentage series are scaled against a fixed 0-100 range and
// colored by the latest value's threshold; other series are scaled between
// their own min and max and drawn in color.
func RenderSparkline(data []float64, width int, percent bool, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := 0.0, 100.0
	if !percent {
		minVal, maxVal = data[0], data[0]
		for _, v := range data {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}

	levels := len(sparklineBlocks)
	valueRange := maxVal - minVal

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	for _, v := range data {
		level := levels / 2
		if valueRange > 0 {
			level = int((v - minVal) / valueRange * float64(levels-1))
			if level < 0 {
				level = 0
			} else if level >= levels {
				level = levels - 1
			}
		}
		sb.WriteRune(sparklineBlocks[level])
	}

	if percent {
		color = MetricColor(data[len(data)-1])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}
