package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/remitware/remit/internal/cli"
	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/tasks"
)

// importedClaim is the JSON shape accepted by the import command, one
// object per claim in a top-level array.
type importedClaim struct {
	ClaimNumber     string   `json:"claim_number"`
	ProviderNPI     string   `json:"provider_npi"`
	PatientID       string   `json:"patient_id"`
	PayerID         string   `json:"payer_id"`
	PayerType       string   `json:"payer_type"`
	Amount          float64  `json:"amount"`
	CPTCodes        []string `json:"cpt_codes"`
	ICDCodes        []string `json:"icd_codes"`
	ServiceDateFrom string   `json:"service_date_from"`
	ServiceDateTo   string   `json:"service_date_to"`
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Bulk import claims from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	cmd.Flags().Bool("validate", false, "run payer rule validation on each imported claim")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	orch, store, _, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var records []importedClaim
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}
	if len(records) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Importing claims...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	validate, _ := cmd.Flags().GetBool("validate")
	var dispatcher *tasks.Dispatcher
	if validate {
		dispatcher = tasks.NewDispatcher(store)
	}

	var imported, duplicates, failed int
	for i := range records {
		claim, err := records[i].toClaim()
		if err != nil {
			slog.Warn("skipping malformed claim record",
				"claim_number", records[i].ClaimNumber,
				"error", err)
			failed++
			_ = bar.Add(1)
			continue
		}

		switch err := orch.CreateClaim(ctx, claim); {
		case err == nil:
			imported++
			if dispatcher != nil {
				dispatcher.ValidateClaim(claim.ID)
			}
		case errors.Is(err, common.ErrDuplicateEntry):
			duplicates++
		default:
			slog.Warn("failed to import claim",
				"claim_number", claim.ClaimNumber,
				"error", err)
			failed++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if dispatcher != nil {
		dispatcher.Close()
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d claims (%d duplicates skipped, %d failed)",
		imported, duplicates, failed)))
	return nil
}

func (r *importedClaim) toClaim() (*model.Claim, error) {
	from, err := time.Parse("2006-01-02", r.ServiceDateFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid service_date_from: %w", err)
	}
	to := from
	if r.ServiceDateTo != "" {
		to, err = time.Parse("2006-01-02", r.ServiceDateTo)
		if err != nil {
			return nil, fmt.Errorf("invalid service_date_to: %w", err)
		}
	}

	payerType := model.PayerType(r.PayerType)
	if payerType == "" {
		payerType = model.PayerCommercial
	}

	return &model.Claim{
		ClaimNumber:     r.ClaimNumber,
		ProviderNPI:     r.ProviderNPI,
		PatientID:       r.PatientID,
		PayerID:         r.PayerID,
		PayerType:       payerType,
		Amount:          r.Amount,
		CPTCodes:        r.CPTCodes,
		ICDCodes:        r.ICDCodes,
		ServiceDateFrom: from,
		ServiceDateTo:   to,
	}, nil
}
