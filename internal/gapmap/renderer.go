package gapmap

import "fmt"

const (
	rows = 20
	cols = 60

	// innerTurn/outerTurn are heuristic, disc-family-dependent constants;
	// the rendering is diagnostic, not metrological, so they are not
	// recalibrated here.
	innerTurn = 192
	outerTurn = 432
)

// Render produces a fixed rows x cols ASCII grid mapping every recorded
// gap entry to a (radial, angular) disc coordinate via a spiral
// projection: row is the radius band, column is the angular position
// within that band's turn length. Marked cells print '#', unmarked '.',
// each row bracketed by '|'.
func Render(entries []Entry, totalBlocks uint32) string {
	grid := make([][]byte, rows)
	for r := range grid {
		grid[r] = make([]byte, cols)
		for c := range grid[r] {
			grid[r][c] = '.'
		}
	}

	if totalBlocks > 0 {
		for _, e := range entries {
			step := e.Count / 31
			if step < 1 {
				step = 1
			}
			for i := uint32(0); i < e.Count; i += step {
				mark(grid, e.GlobalStart+i, totalBlocks)
			}
		}
	}

	out := ""
	for r := 0; r < rows; r++ {
		out += fmt.Sprintf("|%s|\n", string(grid[r]))
	}
	return out
}

func mark(grid [][]byte, globalBlock, totalBlocks uint32) {
	row := (globalBlock * rows) / totalBlocks
	if row > rows-1 {
		row = rows - 1
	}

	turn := uint32(innerTurn + ((outerTurn-innerTurn)*int(row))/(rows-1))
	col := (globalBlock % turn) * cols / turn
	if col > cols-1 {
		col = cols - 1
	}

	grid[row][col] = '#'
}
