package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/contract-gateway/internal/models"
)

const invocationColumns = `id, request_id, op, contract, function, from_account, to_address,
	tx_hash, success, error, duration_ms, created_at`

type InvocationRepo struct {
	pool *pgxpool.Pool
}

func NewInvocationRepo(pool *pgxpool.Pool) *InvocationRepo {
	return &InvocationRepo{pool: pool}
}

func (r *InvocationRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Record inserts inv, assigning an ID and creation time when they are unset.
func (r *InvocationRepo) Record(ctx context.Context, inv *models.Invocation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO contract_invocations (`+invocationColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inv.ID.String(), inv.RequestID, inv.Op, inv.Contract, inv.Function, inv.FromAccount,
		inv.ToAddress, inv.TxHash, inv.Success, inv.Error, inv.DurationMS, inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// GetRecent returns the newest invocations first. An empty contract means all contracts.
func (r *InvocationRepo) GetRecent(ctx context.Context, contract string, limit int) ([]models.Invocation, error) {
	query := `SELECT ` + invocationColumns + ` FROM contract_invocations`
	args := []any{}
	if contract != "" {
		args = append(args, contract)
		query += " WHERE contract = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInvocations(rows)
}

// GetByID returns nil, nil when no row matches.
func (r *InvocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invocation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+invocationColumns+` FROM contract_invocations WHERE id = $1`, id.String())
	inv, err := scanInvocation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanInvocation(row scannable) (*models.Invocation, error) {
	var inv models.Invocation
	var id string
	err := row.Scan(
		&id, &inv.RequestID, &inv.Op, &inv.Contract, &inv.Function, &inv.FromAccount,
		&inv.ToAddress, &inv.TxHash, &inv.Success, &inv.Error, &inv.DurationMS, &inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inv.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse invocation id: %w", err)
	}
	return &inv, nil
}

func collectInvocations(rows rowsIter) ([]models.Invocation, error) {
	out := []models.Invocation{}
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
