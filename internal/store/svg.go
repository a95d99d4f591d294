package store

import (
	"fmt"
	"os"
	"strings"
)

var svgPalette = []string{"#00ff00", "#00bfff", "#ff8c00", "#ff4d4d", "#c084fc", "#facc15"}

// ExportSVG renders the position traces as one polyline per degree of
// freedom, all sharing the trajectory's time axis and a common value range.
func ExportSVG(path string, data *ExportData) error {
	const width, height = 720, 360

	if len(data.Positions) < 2 {
		return fmt.Errorf("store: need at least 2 samples to plot, got %d", len(data.Positions))
	}
	dofs := len(data.Positions[0])

	minY, maxY := data.Positions[0][0], data.Positions[0][0]
	for _, pos := range data.Positions {
		for _, v := range pos {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	// Zero line for orientation when the range straddles it.
	if minY < 0 && maxY > 0 {
		y := float64(height) * (1 - (0-minY)/rangeY)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#333333"/>
`, y, width, y))
	}

	last := float64(len(data.Positions) - 1)
	for d := 0; d < dofs; d++ {
		color := svgPalette[d%len(svgPalette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for t, pos := range data.Positions {
			x := float64(t) / last * float64(width)
			y := float64(height) * (1 - (pos[d]-minY)/rangeY)
			if t == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>\n")

	return os.WriteFile(path, []byte(sb.String()), 0644)
}
