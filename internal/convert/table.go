// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "strings"

const minColWidth = 3

// markdownTable renders rows as a GitHub-flavoured Markdown table. The first
// row is the header; short rows are padded with empty cells.
func markdownTable(rows [][]string) string {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range rows {
		for i, v := range row {
			widths[i] = max(widths[i], len(cellText(v)))
		}
	}

	var b strings.Builder
	line := func(row []string) {
		b.WriteString("|")
		for i := 0; i < cols; i++ {
			v := ""
			if i < len(row) {
				v = cellText(row[i])
			}
			b.WriteString(" " + v + strings.Repeat(" ", widths[i]-len(v)) + " |")
		}
		b.WriteByte('\n')
	}

	line(rows[0])
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(" " + strings.Repeat("-", w) + " |")
	}
	b.WriteByte('\n')
	for _, row := range rows[1:] {
		line(row)
	}
	return b.String()
}

// cellText flattens newlines and escapes pipes so a value stays in its cell.
func cellText(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
