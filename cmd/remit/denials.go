package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/cli"
	"github.com/remitware/remit/internal/engine"
	"github.com/remitware/remit/internal/model"
)

func denialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "denials",
		Short: "Record payer denials and work them with the resolution agent",
	}

	cmd.AddCommand(denialsRecordCmd())
	cmd.AddCommand(denialsProcessCmd())
	cmd.AddCommand(denialsExecuteCmd())
	cmd.AddCommand(denialsOverrideCmd())
	cmd.AddCommand(denialsListCmd())
	return cmd
}

func denialsRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <claim-id>",
		Short: "Record and classify a payer denial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			orch, store, _, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			claim, err := findClaim(ctx, store, args[0])
			if err != nil {
				return err
			}

			code, _ := cmd.Flags().GetString("code")
			message, _ := cmd.Flags().GetString("message")
			payload, _ := cmd.Flags().GetString("payload")
			deny, _ := cmd.Flags().GetBool("deny")

			event, err := orch.RecordDenial(ctx, engine.DenialParams{
				ClaimID:       claim.ID,
				PayerID:       claim.PayerID,
				DenialCode:    code,
				DenialMessage: message,
				RawPayload:    payload,
			})
			if err != nil {
				return fmt.Errorf("failed to record denial: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded denial %s for claim %s", event.ID, claim.ClaimNumber)))
			fmt.Printf("  Reason:     %s\n", event.Reason)
			fmt.Printf("  Category:   %s\n", event.Category)
			fmt.Printf("  Baseline:   %s (%s)\n", event.RecommendedAction, cli.RenderConfidence(event.Confidence))

			if deny {
				if _, err := orch.Transition(ctx, claim.ID, model.StatusDenied, "Payer denial "+code); err != nil {
					return err
				}
				fmt.Println(cli.FormatSuccess("Claim moved to " + cli.RenderStatus(model.StatusDenied)))
			}
			return nil
		},
	}

	cmd.Flags().String("code", "", "payer denial code, e.g. CO-50 (required)")
	cmd.Flags().String("message", "", "payer denial message text")
	cmd.Flags().String("payload", "", "raw payer payload to keep with the event")
	cmd.Flags().Bool("deny", false, "also transition the claim to DENIED")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func denialsProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <claim-id>",
		Short: "Run the resolution agent against a denied claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			orch, store, cfg, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			claim, err := findClaim(ctx, store, args[0])
			if err != nil {
				return err
			}

			threshold := cfg.ConfidenceThreshold
			if cmd.Flags().Changed("threshold") {
				threshold, _ = cmd.Flags().GetFloat64("threshold")
			}
			autoExecute := cfg.AutoExecute
			if cmd.Flags().Changed("auto-execute") {
				autoExecute, _ = cmd.Flags().GetBool("auto-execute")
			}

			var category model.DenialCategory
			if categoryStr, _ := cmd.Flags().GetString("category"); categoryStr != "" {
				category = model.DenialCategory(categoryStr)
			} else {
				events, err := store.GetDenialEvents(ctx, claim.ID)
				if err != nil {
					return err
				}
				if len(events) == 0 {
					return fmt.Errorf("claim %s has no recorded denial, pass --category or record one first", claim.ClaimNumber)
				}
				category = events[len(events)-1].Category
			}

			decision, executed, err := orch.ProcessDenial(ctx, claim.ID, category, threshold, autoExecute)
			if err != nil {
				return fmt.Errorf("failed to process denial: %w", err)
			}

			fmt.Print(cli.RenderDecision(decision))
			if executed {
				fmt.Println(cli.FormatSuccess("Decision auto-executed"))
			} else if decision.RequiresHumanReview {
				fmt.Println(cli.FormatWarning("Decision needs human review before execution"))
			}
			return nil
		},
	}

	cmd.Flags().Float64("threshold", 0, "confidence required to auto-execute (default from config)")
	cmd.Flags().Bool("auto-execute", false, "execute immediately when confidence clears the threshold")
	cmd.Flags().String("category", "", "denial category override")
	return cmd
}

func denialsExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <claim-id> <decision-id>",
		Short: "Execute a previously recorded agent decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			orch, store, _, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			claim, err := findClaim(ctx, store, args[0])
			if err != nil {
				return err
			}

			result, err := orch.ExecuteDecision(ctx, claim.ID, args[1])
			if err != nil {
				return fmt.Errorf("execution failed: %w", err)
			}
			if result.AlreadyExecuted {
				fmt.Println(cli.FormatWarning("Decision was already executed: " + result.Message))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Executed %s: %s", result.Action, result.Message)))
			return nil
		},
	}
}

func denialsOverrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override <claim-id> <decision-id>",
		Short: "Override an agent decision with a human-chosen action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			orch, store, _, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			claim, err := findClaim(ctx, store, args[0])
			if err != nil {
				return err
			}

			actionStr, _ := cmd.Flags().GetString("action")
			reviewer, _ := cmd.Flags().GetString("reviewer")
			notes, _ := cmd.Flags().GetString("notes")

			result, err := orch.OverrideDecision(ctx, claim.ID, args[1], model.DecisionAction(actionStr), reviewer, notes)
			if err != nil {
				return fmt.Errorf("override failed: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Override applied, %s: %s", result.Action, result.Message)))
			return nil
		},
	}

	cmd.Flags().String("action", "", "action to take instead (required)")
	cmd.Flags().String("reviewer", "", "name of the reviewer (required)")
	cmd.Flags().String("notes", "", "review notes")
	_ = cmd.MarkFlagRequired("action")
	_ = cmd.MarkFlagRequired("reviewer")
	return cmd
}

func denialsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <claim-id>",
		Short: "List denial events and agent decisions for a claim",
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

			events, err := store.GetDenialEvents(ctx, claim.ID)
			if err != nil {
				return err
			}
			decisions, err := store.GetDecisions(ctx, claim.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Denial events"))
			if len(events) == 0 {
				fmt.Println("  none")
			} else {
				rows := make([][]string, 0, len(events))
				for i := range events {
					e := &events[i]
					rows = append(rows, []string{
						cli.FormatTime(e.CreatedAt),
						e.DenialCode,
						string(e.Category),
						string(e.RecommendedAction),
						cli.RenderConfidence(e.Confidence),
					})
				}
				fmt.Print(cli.RenderTable([]string{"WHEN", "CODE", "CATEGORY", "BASELINE", "CONFIDENCE"}, rows))
			}

			fmt.Println(cli.FormatTitle("Agent decisions"))
			if len(decisions) == 0 {
				fmt.Println("  none")
			} else {
				rows := make([][]string, 0, len(decisions))
				for i := range decisions {
					d := &decisions[i]
					executed := "no"
					if d.WasExecuted {
						executed = "yes"
					}
					rows = append(rows, []string{
						d.ID,
						string(d.Decision),
						cli.RenderConfidence(d.Confidence),
						executed,
						cli.FormatTime(d.CreatedAt),
					})
				}
				fmt.Print(cli.RenderTable([]string{"DECISION", "ACTION", "CONFIDENCE", "EXECUTED", "WHEN"}, rows))
			}
			return nil
		},
	}
}
