package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"notifyplex/internal/services/plex"
)

// renderSections formats library sections for an interactive terminal.
func renderSections(sections []plex.Section) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Section", "Type", "Title"})
	for _, section := range sections {
		tw.AppendRow(table.Row{strconv.Itoa(section.ID), string(section.Kind), section.Title})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
