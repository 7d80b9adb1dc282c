package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/cli"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <claim-id>",
		Short: "Show a claim's full audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			claim, err := findClaim(ctx, store, args[0])
			if err != nil {
				return err
			}

			transitions, err := store.GetTransitions(ctx, claim.ID)
			if err != nil {
				return err
			}
			events, err := store.GetEvents(ctx, claim.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Claim %s, currently %s",
				claim.ClaimNumber, cli.RenderStatus(claim.Status))))

			fmt.Println(cli.FormatTitle("Transitions"))
			if len(transitions) == 0 {
				fmt.Println("  none")
			} else {
				rows := make([][]string, 0, len(transitions))
				for i := range transitions {
					t := &transitions[i]
					from := "—"
					if t.FromStatus != nil {
						from = string(*t.FromStatus)
					}
					rows = append(rows, []string{
						cli.FormatTime(t.CreatedAt),
						from,
						string(t.ToStatus),
						t.Reason,
					})
				}
				fmt.Print(cli.RenderTable([]string{"WHEN", "FROM", "TO", "REASON"}, rows))
			}

			fmt.Println(cli.FormatTitle("Events"))
			if len(events) == 0 {
				fmt.Println("  none")
			} else {
				rows := make([][]string, 0, len(events))
				for i := range events {
					e := &events[i]
					rows = append(rows, []string{
						cli.FormatTime(e.CreatedAt),
						string(e.Type),
						e.Description,
					})
				}
				fmt.Print(cli.RenderTable([]string{"WHEN", "TYPE", "DESCRIPTION"}, rows))
			}
			return nil
		},
	}
}
