package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/remitware/remit/internal/common"
	"github.com/remitware/remit/internal/model"
	"github.com/remitware/remit/internal/service"
)

const claimColumns = `id, claim_number, provider_npi, patient_id, payer_id, payer_type,
	status, amount, allowed_amount, paid_amount, cpt_codes, icd_codes,
	service_date_from, service_date_to, submitted_at, responded_at, paid_at,
	denial_reason, denial_details, recommended_action, agent_confidence,
	requires_human_review, created_at, updated_at`

// CreateClaim persists a new claim. A duplicate claim number is rejected
// with common.ErrDuplicateEntry.
func (s *SQLiteStorage) CreateClaim(ctx context.Context, claim *model.Claim) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return createClaim(ctx, s.db, claim)
}

// GetClaim loads a claim by its ID.
func (s *SQLiteStorage) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getClaim(ctx, s.db, id)
}

// GetClaimByNumber loads a claim by its externally assigned claim number.
func (s *SQLiteStorage) GetClaimByNumber(ctx context.Context, claimNumber string) (*model.Claim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(claimNumber, "claimNumber"); err != nil {
		return nil, err
	}
	return getClaimByNumber(ctx, s.db, claimNumber)
}

// ListClaims returns claims matching the filter, newest first.
func (s *SQLiteStorage) ListClaims(ctx context.Context, filter service.ClaimFilter) ([]model.Claim, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listClaims(ctx, s.db, filter)
}

// UpdateClaim writes the claim's mutable fields back to the database.
func (s *SQLiteStorage) UpdateClaim(ctx context.Context, claim *model.Claim) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateClaim(ctx, s.db, claim)
}

// SumDeniedAmountSince totals the billed amount of claims currently denied
// or rejected that were created inside the window.
func (s *SQLiteStorage) SumDeniedAmountSince(ctx context.Context, since time.Time) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	return sumDeniedAmountSince(ctx, s.db, since)
}

func createClaim(ctx context.Context, q dbtx, claim *model.Claim) error {
	if err := validateClaim(claim); err != nil {
		return err
	}
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	if claim.UpdatedAt.IsZero() {
		claim.UpdatedAt = claim.CreatedAt
	}

	cptJSON, err := json.Marshal(claim.CPTCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal CPT codes: %w", err)
	}
	icdJSON, err := json.Marshal(claim.ICDCodes)
	if err != nil {
		return fmt.Errorf("failed to marshal ICD codes: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		claim.ID,
		claim.ClaimNumber,
		claim.ProviderNPI,
		claim.PatientID,
		claim.PayerID,
		string(claim.PayerType),
		string(claim.Status),
		claim.Amount,
		claim.AllowedAmount,
		claim.PaidAmount,
		string(cptJSON),
		string(icdJSON),
		claim.ServiceDateFrom,
		claim.ServiceDateTo,
		claim.SubmittedAt,
		claim.RespondedAt,
		claim.PaidAt,
		claim.DenialReason,
		claim.DenialDetails,
		string(claim.RecommendedAction),
		claim.AgentConfidence,
		boolString(claim.RequiresHumanReview),
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("claim number %s: %w", claim.ClaimNumber, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

func getClaim(ctx context.Context, q dbtx, id string) (*model.Claim, error) {
	row := q.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", id, common.ErrNotFound)
	}
	return claim, err
}

func getClaimByNumber(ctx context.Context, q dbtx, claimNumber string) (*model.Claim, error) {
	row := q.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE claim_number = ?`, claimNumber)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim number %s: %w", claimNumber, common.ErrNotFound)
	}
	return claim, err
}

func listClaims(ctx context.Context, q dbtx, filter service.ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.PayerType != nil {
		conditions = append(conditions, "payer_type = ?")
		args = append(args, string(*filter.PayerType))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		claim, scanErr := scanClaim(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

func updateClaim(ctx context.Context, q dbtx, claim *model.Claim) error {
	if err := validateClaim(claim); err != nil {
		return err
	}
	claim.UpdatedAt = time.Now().UTC()

	result, err := q.ExecContext(ctx, `
		UPDATE claims SET
			status = ?, amount = ?, allowed_amount = ?, paid_amount = ?,
			submitted_at = ?, responded_at = ?, paid_at = ?,
			denial_reason = ?, denial_details = ?, recommended_action = ?,
			agent_confidence = ?, requires_human_review = ?, updated_at = ?
		WHERE id = ?
	`,
		string(claim.Status),
		claim.Amount,
		claim.AllowedAmount,
		claim.PaidAmount,
		claim.SubmittedAt,
		claim.RespondedAt,
		claim.PaidAt,
		claim.DenialReason,
		claim.DenialDetails,
		string(claim.RecommendedAction),
		claim.AgentConfidence,
		boolString(claim.RequiresHumanReview),
		claim.UpdatedAt,
		claim.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("claim %s: %w", claim.ID, common.ErrNotFound)
	}
	return nil
}

func sumDeniedAmountSince(ctx context.Context, q dbtx, since time.Time) (float64, error) {
	var total float64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM claims
		WHERE status IN (?, ?) AND created_at >= ?
	`, string(model.StatusDenied), string(model.StatusRejected), since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum denied amounts: %w", err)
	}
	return total, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var (
		claim        model.Claim
		payerType    string
		status       string
		cptJSON      string
		icdJSON      string
		allowed      sql.NullFloat64
		paid         sql.NullFloat64
		confidence   sql.NullFloat64
		submittedAt  sql.NullTime
		respondedAt  sql.NullTime
		paidAt       sql.NullTime
		denialReason sql.NullString
		denialDetail sql.NullString
		recommended  sql.NullString
		review       string
	)

	err := row.Scan(
		&claim.ID,
		&claim.ClaimNumber,
		&claim.ProviderNPI,
		&claim.PatientID,
		&claim.PayerID,
		&payerType,
		&status,
		&claim.Amount,
		&allowed,
		&paid,
		&cptJSON,
		&icdJSON,
		&claim.ServiceDateFrom,
		&claim.ServiceDateTo,
		&submittedAt,
		&respondedAt,
		&paidAt,
		&denialReason,
		&denialDetail,
		&recommended,
		&confidence,
		&review,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}

	claim.PayerType = model.PayerType(payerType)
	claim.Status = model.ClaimStatus(status)
	claim.RequiresHumanReview = review == "true"
	claim.DenialReason = denialReason.String
	claim.DenialDetails = denialDetail.String
	claim.RecommendedAction = model.RecommendedAction(recommended.String)
	claim.AllowedAmount = nullFloat(allowed)
	claim.PaidAmount = nullFloat(paid)
	claim.AgentConfidence = nullFloat(confidence)
	claim.SubmittedAt = nullTime(submittedAt)
	claim.RespondedAt = nullTime(respondedAt)
	claim.PaidAt = nullTime(paidAt)

	if err := json.Unmarshal([]byte(cptJSON), &claim.CPTCodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CPT codes: %w", err)
	}
	if err := json.Unmarshal([]byte(icdJSON), &claim.ICDCodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ICD codes: %w", err)
	}

	return &claim, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
