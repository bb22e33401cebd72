package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView is a rounded table with an optional footer row. Rows shorter
// than the header are padded with empty cells.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	footer  []string
}

func (v tableView) render() string {
	if len(v.headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(v.row(v.headers))
	for _, r := range v.rows {
		tw.AppendRow(v.row(r))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.row(v.footer))
	}

	configs := make([]table.ColumnConfig, len(v.headers))
	for i := range v.headers {
		align := text.AlignLeft
		if i < len(v.aligns) && v.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func (v tableView) row(cells []string) table.Row {
	out := make(table.Row, len(v.headers))
	for i := range out {
		if i < len(cells) {
			out[i] = cells[i]
		} else {
			out[i] = ""
		}
	}
	return out
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return tableView{headers: headers, aligns: aligns, rows: rows}.render()
}
