package app

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const maxCellWidth = 48

// table renders rows as space-aligned columns using display widths, so
// titles in CJK or with emoji stay aligned.
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.header))
	measure := func(row []string) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if width := runewidth.StringWidth(cell(row[i])); width > widths[i] {
				widths[i] = width
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		for i := range widths {
			content := ""
			if i < len(row) {
				content = cell(row[i])
			}
			sb.WriteString(content)
			if i == len(widths)-1 {
				break
			}
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(content)+2))
		}
		sb.WriteString("\n")
	}

	writeRow(t.header)
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	writeRow(sep)
	for _, row := range t.rows {
		writeRow(row)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func cell(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	return runewidth.Truncate(value, maxCellWidth, "...")
}
