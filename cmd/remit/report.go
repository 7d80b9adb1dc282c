package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/cli"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/outcome"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Outcome, revenue, and learning reports",
	}

	cmd.PersistentFlags().Int("days", 0, "look-back window in days (default from config)")

	cmd.AddCommand(reportSuccessRateCmd())
	cmd.AddCommand(reportRevenueCmd())
	cmd.AddCommand(reportInsightsCmd())
	return cmd
}

func windowDays(cmd *cobra.Command, configured int) int {
	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		return days
	}
	return configured
}

func reportSuccessRateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "success-rate",
		Short: "Success rate of resolution attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var category *model.DenialCategory
			if s, _ := cmd.Flags().GetString("category"); s != "" {
				c := model.DenialCategory(s)
				category = &c
			}
			var action *model.DecisionAction
			if s, _ := cmd.Flags().GetString("action"); s != "" {
				a := model.DecisionAction(s)
				action = &a
			}

			days := windowDays(cmd, cfg.OutcomeWindowDays)
			tracker := outcome.NewTracker(store)
			rate, err := tracker.SuccessRate(ctx, category, action, days)
			if err != nil {
				return err
			}
			if rate == nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Not enough resolved outcomes in the last %d days", days)))
				return nil
			}
			fmt.Println(cli.FormatTitle(fmt.Sprintf("Success rate, last %d days", days)))
			fmt.Printf("  %.1f%%\n", *rate*100)
			return nil
		},
	}

	cmd.Flags().String("category", "", "restrict to a denial category")
	cmd.Flags().String("action", "", "restrict to an action")
	return cmd
}

func reportRevenueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revenue",
		Short: "Recovered revenue against denied amounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			days := windowDays(cmd, cfg.OutcomeWindowDays)
			tracker := outcome.NewTracker(store)
			metrics, err := tracker.RevenueMetrics(ctx, days)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Revenue recovery, last %d days", days)))
			fmt.Printf("  Recovered:     %s\n", cli.FormatAmount(metrics.TotalRecovered))
			fmt.Printf("  Denied:        %s\n", cli.FormatAmount(metrics.TotalDeniedAmount))
			fmt.Printf("  Recovery rate: %.1f%%\n", metrics.RecoveryRate*100)
			fmt.Printf("  Resolved:      %d\n", metrics.TotalResolved)
			return nil
		},
	}
}

func reportInsightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights <category>",
		Short: "Best-performing action per denial category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			days := windowDays(cmd, cfg.OutcomeWindowDays)
			tracker := outcome.NewTracker(store)
			insights, err := tracker.LearningInsights(ctx, model.DenialCategory(args[0]), days)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s, last %d days", insights.Category, days)))
			if insights.InsufficientData {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Not enough resolved outcomes (%d)", insights.TotalOutcomes)))
				return nil
			}

			fmt.Printf("  Best action: %s (%.1f%% success)\n", insights.BestAction, insights.BestSuccessRate*100)

			actions := make([]model.DecisionAction, 0, len(insights.Actions))
			for action := range insights.Actions {
				actions = append(actions, action)
			}
			sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })

			rows := make([][]string, 0, len(actions))
			for _, action := range actions {
				stats := insights.Actions[action]
				rows = append(rows, []string{
					string(action),
					fmt.Sprintf("%.1f%%", stats.SuccessRate*100),
					fmt.Sprintf("%d", stats.Attempts),
					cli.FormatAmount(stats.TotalRevenue),
				})
			}
			fmt.Print(cli.RenderTable([]string{"ACTION", "SUCCESS", "ATTEMPTS", "REVENUE"}, rows))
			return nil
		},
	}
}
