package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"ats-aggregator/internal/platforms"
	"ats-aggregator/internal/sources"
	"ats-aggregator/internal/sources/builtin"
)

type sourceRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Supported bool   `json:"supported"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List job boards and their readiness",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := builtin.NewRegistry(cfg, sources.Deps{
			Logger:     logger,
			HTTPClient: http.DefaultClient,
		})
		return printJSON(cmd.OutOrStdout(), sourceRows(registry))
	},
}

func sourceRows(registry *sources.Registry) []sourceRow {
	supported := make(map[string]bool)
	for _, id := range registry.Supported() {
		supported[id] = true
	}
	statuses := make(map[string]sources.SourceStatus)
	for _, s := range registry.Statuses() {
		statuses[s.ID] = s
	}

	rows := make([]sourceRow, 0, len(platforms.All()))
	for _, p := range platforms.All() {
		row := sourceRow{ID: p.ID, Name: p.Name, Supported: supported[p.ID], Status: "disabled"}
		if s, ok := statuses[p.ID]; ok {
			row.Status = s.Status
			row.Reason = s.Reason
		}
		rows = append(rows, row)
	}
	return rows
}
