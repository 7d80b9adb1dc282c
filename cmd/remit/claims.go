package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/cli"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
	"github.com/remitware/remit/internal/tasks"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Create, inspect, and move claims through their lifecycle",
	}

	cmd.AddCommand(claimsCreateCmd())
	cmd.AddCommand(claimsShowCmd())
	cmd.AddCommand(claimsTransitionCmd())
	cmd.AddCommand(claimsValidateCmd())
	cmd.AddCommand(claimsListCmd())
	return cmd
}

func claimsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new claim",
		RunE:  runClaimsCreate,
	}

	cmd.Flags().String("number", "", "claim number (required)")
	cmd.Flags().String("npi", "", "provider NPI (required)")
	cmd.Flags().String("patient", "", "patient ID (required)")
	cmd.Flags().String("payer", "", "payer ID (required)")
	cmd.Flags().String("payer-type", string(model.PayerCommercial), "payer type (COMMERCIAL, MEDICARE, MEDICAID, SELF_PAY)")
	cmd.Flags().Float64("amount", 0, "billed amount (required)")
	cmd.Flags().StringSlice("cpt", nil, "CPT codes (required, comma-separated)")
	cmd.Flags().StringSlice("icd", nil, "ICD-10 codes (required, comma-separated)")
	cmd.Flags().String("from", "", "service date from (2006-01-02, required)")
	cmd.Flags().String("to", "", "service date to (defaults to from)")
	cmd.Flags().Bool("validate", false, "run payer rule validation after creating")

	for _, required := range []string{"number", "npi", "patient", "payer", "amount", "cpt", "icd", "from"} {
		_ = cmd.MarkFlagRequired(required)
	}
	return cmd
}

func runClaimsCreate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	orch, store, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fromStr, _ := cmd.Flags().GetString("from")
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	to := from
	if toStr, _ := cmd.Flags().GetString("to"); toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
	}

	number, _ := cmd.Flags().GetString("number")
	npi, _ := cmd.Flags().GetString("npi")
	patient, _ := cmd.Flags().GetString("patient")
	payer, _ := cmd.Flags().GetString("payer")
	payerType, _ := cmd.Flags().GetString("payer-type")
	amount, _ := cmd.Flags().GetFloat64("amount")
	cptCodes, _ := cmd.Flags().GetStringSlice("cpt")
	icdCodes, _ := cmd.Flags().GetStringSlice("icd")

	claim := &model.Claim{
		ClaimNumber:     number,
		ProviderNPI:     npi,
		PatientID:       patient,
		PayerID:         payer,
		PayerType:       model.PayerType(payerType),
		Amount:          amount,
		CPTCodes:        cptCodes,
		ICDCodes:        icdCodes,
		ServiceDateFrom: from,
		ServiceDateTo:   to,
	}

	if err := orch.CreateClaim(ctx, claim); err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created claim %s (%s)", claim.ClaimNumber, claim.ID)))

	if validate, _ := cmd.Flags().GetBool("validate"); validate {
		dispatcher := tasks.NewDispatcher(store)
		dispatcher.ValidateClaim(claim.ID)
		dispatcher.Close()

		updated, err := store.GetClaim(ctx, claim.ID)
		if err != nil {
			return err
		}
		if updated.Status == model.StatusValidated {
			fmt.Println(cli.FormatSuccess("Validation passed"))
		} else {
			fmt.Println(cli.FormatWarning("Validation failed, claim left in CREATED (see history)"))
		}
	}
	return nil
}

func claimsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <claim-id>",
		Short: "Show a claim's details",
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

			fmt.Print(cli.RenderClaimDetail(claim))
			return nil
		},
	}
}

func claimsTransitionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <claim-id> <target-status>",
		Short: "Move a claim to a new status",
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

			reason, _ := cmd.Flags().GetString("reason")
			target := model.ClaimStatus(args[1])
			if !target.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}

			updated, err := orch.Transition(ctx, claim.ID, target, reason)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Claim %s is now %s",
				updated.ClaimNumber, cli.RenderStatus(updated.Status))))
			return nil
		},
	}
	cmd.Flags().String("reason", "", "reason recorded on the transition")
	return cmd
}

func claimsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <claim-id>",
		Short: "Run payer rule validation on a claim",
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

			dispatcher := tasks.NewDispatcher(store)
			dispatcher.ValidateClaim(claim.ID)
			dispatcher.Close()

			updated, err := store.GetClaim(ctx, claim.ID)
			if err != nil {
				return err
			}
			if updated.Status == model.StatusValidated {
				fmt.Println(cli.FormatSuccess("Validation passed"))
				return nil
			}
			fmt.Println(cli.FormatWarning(fmt.Sprintf("Claim is %s, validation did not advance it", updated.Status)))
			return nil
		},
	}
}

func claimsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List claims",
		RunE:  runClaimsList,
	}

	cmd.Flags().String("status", "", "filter by status")
	cmd.Flags().String("payer-type", "", "filter by payer type")
	cmd.Flags().Int("limit", 50, "maximum number of claims to show")
	return cmd
}

func runClaimsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, _, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := service.ClaimFilter{}
	if status, _ := cmd.Flags().GetString("status"); status != "" {
		s := model.ClaimStatus(status)
		if !s.Valid() {
			return fmt.Errorf("unknown status %q", status)
		}
		filter.Status = &s
	}
	if payerType, _ := cmd.Flags().GetString("payer-type"); payerType != "" {
		p := model.PayerType(payerType)
		filter.PayerType = &p
	}
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	claims, err := store.ListClaims(ctx, filter)
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		fmt.Println("No claims found.")
		return nil
	}

	rows := make([][]string, 0, len(claims))
	for i := range claims {
		c := &claims[i]
		rows = append(rows, []string{
			c.ClaimNumber,
			cli.RenderStatus(c.Status),
			string(c.PayerType),
			cli.FormatAmount(c.Amount),
			string(c.RecommendedAction),
			cli.FormatTime(c.CreatedAt),
		})
	}
	fmt.Print(cli.RenderTable(
		[]string{"NUMBER", "STATUS", "PAYER", "AMOUNT", "RECOMMENDED", "CREATED"},
		rows,
	))
	return nil
}
