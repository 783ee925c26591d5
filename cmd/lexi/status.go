package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show per-area coverage and backlog for every workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()

			workspaces, err := a.workspaces.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list workspaces: %w", err)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Workspace", "Area", "Visits", "Unassigned"})

			for _, ws := range workspaces {
				areaQ, ok := ws.Question(a.cfg.Scheduler.AreaQuestion)
				if !ok {
					tw.AppendRow(table.Row{ws.Name, "(no area question)", "-", "-"})
					continue
				}

				areaCol, err := a.columns.ColumnFor(ctx, ws.ID, areaQ.Text)
				if err != nil {
					return fmt.Errorf("failed to resolve area column for %q: %w", ws.Name, err)
				}

				for _, area := range areaQ.Options {
					visits, err := a.responses.CountVisits(ctx, ws, areaCol, area)
					if err != nil {
						return fmt.Errorf("failed to count visits for %q: %w", area, err)
					}
					backlog, err := a.responses.CountUnassignedInArea(ctx, ws, areaCol, area)
					if err != nil {
						return fmt.Errorf("failed to count backlog for %q: %w", area, err)
					}
					tw.AppendRow(table.Row{ws.Name, area, visits, backlog})
				}
				tw.AppendSeparator()
			}

			tw.Render()
			return nil
		},
	}
}
