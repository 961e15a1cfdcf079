package accessory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/mwhitfield/leapgate/internal/infrastructure/database"
)

// Repository persists the accessory set across restarts.
type Repository interface {
	// Insert stores a new accessory. Returns ErrAccessoryExists when
	// an accessory for the same serial (or UUID) is already stored.
	Insert(ctx context.Context, acc Accessory) error

	// Get returns the accessory with the given UUID.
	Get(ctx context.Context, uuid string) (Accessory, error)

	// List returns every persisted accessory.
	List(ctx context.Context) ([]Accessory, error)
}

// SQLiteRepository stores accessories in the gateway's SQLite database.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository returns a repository backed by db.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Insert stores a new accessory. The unique serial index makes racing
// inserts for the same device resolve to one winner; losers see
// ErrAccessoryExists.
func (r *SQLiteRepository) Insert(ctx context.Context, acc Accessory) error {
	contextJSON, err := json.Marshal(acc.Context)
	if err != nil {
		return fmt.Errorf("marshalling accessory context: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accessories (uuid, name, bridge_id, device_type, serial, context, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.UUID,
		acc.Name,
		acc.Context.BridgeID,
		acc.Context.Device.DeviceType,
		acc.Context.Device.SerialNumber.String(),
		string(contextJSON),
		now,
		now,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrAccessoryExists
		}
		return fmt.Errorf("inserting accessory: %w", err)
	}
	return nil
}

// Get returns the accessory with the given UUID.
func (r *SQLiteRepository) Get(ctx context.Context, uuid string) (Accessory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT uuid, name, context, created_at, updated_at
		FROM accessories WHERE uuid = ?`, uuid)

	acc, err := scanAccessory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Accessory{}, ErrAccessoryNotFound
	}
	if err != nil {
		return Accessory{}, fmt.Errorf("querying accessory: %w", err)
	}
	return acc, nil
}

// List returns every persisted accessory in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Accessory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uuid, name, context, created_at, updated_at
		FROM accessories ORDER BY created_at, uuid`)
	if err != nil {
		return nil, fmt.Errorf("listing accessories: %w", err)
	}
	defer rows.Close()

	var out []Accessory
	for rows.Next() {
		acc, err := scanAccessory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning accessory: %w", err)
		}
		out = append(out, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing accessories: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccessory(s scanner) (Accessory, error) {
	var (
		acc         Accessory
		contextJSON string
	)
	if err := s.Scan(&acc.UUID, &acc.Name, &contextJSON, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return Accessory{}, err
	}
	if err := json.Unmarshal([]byte(contextJSON), &acc.Context); err != nil {
		return Accessory{}, fmt.Errorf("unmarshalling accessory context: %w", err)
	}
	return acc, nil
}

// isConstraintViolation reports whether err is a SQLite unique or
// primary key constraint failure.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint
}
