package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// ReadEntitlement возвращает запись о правах пользователя.
// Возвращает ErrNotFound, если запись ещё не создавалась.
func (s *Storage) ReadEntitlement(ctx context.Context, username string) (*models.EntitlementRecord, error) {
	const op = "storage.ReadEntitlement"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT username, status, trial_start, trial_end,
			      subscription_start, subscription_end, has_seen_gate
			  FROM entitlements WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	var result models.EntitlementRecord
	var trialStart, trialEnd, subStart, subEnd sql.NullTime
	err := row.Scan(&result.Username, &result.Status, &trialStart, &trialEnd,
		&subStart, &subEnd, &result.HasSeenGate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if trialStart.Valid {
		result.TrialStart = &trialStart.Time
	}
	if trialEnd.Valid {
		result.TrialEnd = &trialEnd.Time
	}
	if subStart.Valid {
		result.SubscriptionStart = &subStart.Time
	}
	if subEnd.Valid {
		result.SubscriptionEnd = &subEnd.Time
	}
	return &result, nil
}

// SaveEntitlement сохраняет запись о правах пользователя, создавая её при первом обращении.
func (s *Storage) SaveEntitlement(ctx context.Context, record *models.EntitlementRecord) error {
	const op = "storage.SaveEntitlement"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO entitlements (username, status, trial_start, trial_end,
			      subscription_start, subscription_end, has_seen_gate)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (username) DO UPDATE
			  SET status = EXCLUDED.status,
			      trial_start = EXCLUDED.trial_start,
			      trial_end = EXCLUDED.trial_end,
			      subscription_start = EXCLUDED.subscription_start,
			      subscription_end = EXCLUDED.subscription_end,
			      has_seen_gate = EXCLUDED.has_seen_gate`
	_, err := s.DB.ExecContext(ctx, query,
		record.Username, record.Status, record.TrialStart, record.TrialEnd,
		record.SubscriptionStart, record.SubscriptionEnd, record.HasSeenGate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
