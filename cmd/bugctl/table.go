package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
