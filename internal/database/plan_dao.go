package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/promoforge/promoforge/internal/cost"
	"github.com/promoforge/promoforge/internal/plan"
	"github.com/promoforge/promoforge/internal/types"
)

// PlanDAO implements plan.Store over SQLite. Every read and write is scoped
// by user id; a plan owned by someone else scans as no rows, which is
// reported with the same not-found error as a missing plan.
type PlanDAO struct {
	db *DB
}

// NewPlanDAO creates a new plan DAO.
func NewPlanDAO(db *DB) *PlanDAO {
	return &PlanDAO{db: db}
}

func planNotFound(id types.ID) error {
	return types.NewError(types.PLAN_NOT_FOUND, fmt.Sprintf("plan not found: %s", id))
}

// Create inserts a new plan.
func (d *PlanDAO) Create(ctx context.Context, p *plan.Plan) error {
	if p.ID.IsZero() {
		p.ID = types.NewID()
	}

	contentMix, err := json.Marshal(p.ContentMix)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal content mix", err)
	}
	breakdown, err := json.Marshal(p.ScoreBreakdown)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal score breakdown", err)
	}
	posts, err := json.Marshal(p.Posts)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal posts", err)
	}

	query := `
		INSERT INTO plans (
			id, user_id, suggestion_id, status, objective, cadence, channel,
			content_mix, approval_score, score_breakdown, estimated_cost_micros,
			estimated_cost_currency, posts, revision_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	_, err = d.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.SuggestionID, p.Status, p.Objective, p.Cadence, p.Channel,
		string(contentMix), p.ApprovalScore, string(breakdown), int64(p.EstimatedCost),
		p.Currency, string(posts), p.RevisionCount,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create plan", err)
	}

	return nil
}

const planColumns = `
	id, user_id, suggestion_id, status, objective, cadence, channel,
	content_mix, approval_score, score_breakdown, estimated_cost_micros,
	estimated_cost_currency, posts, revision_count, created_at, updated_at
`

// Get retrieves a plan scoped to its owner.
func (d *PlanDAO) Get(ctx context.Context, userID, planID types.ID) (*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ? AND user_id = ?`

	p, err := scanPlan(d.db.QueryRowContext(ctx, query, planID, userID))
	if err == sql.ErrNoRows {
		return nil, planNotFound(planID)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get plan", err)
	}
	return p, nil
}

// List lists a user's plans, newest first, optionally filtered by status.
func (d *PlanDAO) List(ctx context.Context, userID types.ID, status plan.Status) ([]*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list plans", err)
	}
	defer rows.Close()

	var plans []*plan.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan plan", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating plans", err)
	}

	return plans, nil
}

// Update persists every mutable plan field, scoped to the owner.
func (d *PlanDAO) Update(ctx context.Context, p *plan.Plan) error {
	contentMix, err := json.Marshal(p.ContentMix)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal content mix", err)
	}
	breakdown, err := json.Marshal(p.ScoreBreakdown)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal score breakdown", err)
	}
	posts, err := json.Marshal(p.Posts)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal posts", err)
	}

	query := `
		UPDATE plans
		SET status = ?, objective = ?, cadence = ?, channel = ?, content_mix = ?,
		    approval_score = ?, score_breakdown = ?, estimated_cost_micros = ?,
		    posts = ?, revision_count = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`

	result, err := d.db.ExecContext(ctx, query,
		p.Status, p.Objective, p.Cadence, p.Channel, string(contentMix),
		p.ApprovalScore, string(breakdown), int64(p.EstimatedCost),
		string(posts), p.RevisionCount,
		p.ID, p.UserID,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to update plan", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	if affected == 0 {
		return planNotFound(p.ID)
	}

	return nil
}

// UpdateStatus updates just the status of a plan. The engine drives this
// after ownership has already been verified, so it is not user-scoped.
func (d *PlanDAO) UpdateStatus(ctx context.Context, planID types.ID, status plan.Status) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE plans SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, planID,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to update plan status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	if affected == 0 {
		return planNotFound(planID)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*plan.Plan, error) {
	var p plan.Plan
	var suggestionID, cadence, channel sql.NullString
	var contentMix, breakdown sql.NullString
	var postsJSON string
	var costMicros int64

	err := row.Scan(
		&p.ID, &p.UserID, &suggestionID, &p.Status, &p.Objective, &cadence, &channel,
		&contentMix, &p.ApprovalScore, &breakdown, &costMicros,
		&p.Currency, &postsJSON, &p.RevisionCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if suggestionID.Valid {
		p.SuggestionID = types.ID(suggestionID.String)
	}
	p.Cadence = cadence.String
	p.Channel = channel.String
	p.EstimatedCost = cost.Micros(costMicros)

	if contentMix.Valid && contentMix.String != "" {
		if err := json.Unmarshal([]byte(contentMix.String), &p.ContentMix); err != nil {
			return nil, fmt.Errorf("failed to unmarshal content mix: %w", err)
		}
	}
	if breakdown.Valid && breakdown.String != "" {
		if err := json.Unmarshal([]byte(breakdown.String), &p.ScoreBreakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal score breakdown: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(postsJSON), &p.Posts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts: %w", err)
	}

	return &p, nil
}
