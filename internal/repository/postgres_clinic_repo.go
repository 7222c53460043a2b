package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/pinkpulse/internal/model"
)

// PostgresClinicRepo はPostgreSQLを使用したクリニックリポジトリ。
type PostgresClinicRepo struct {
	db *sql.DB
}

// NewPostgresClinicRepo はPostgresClinicRepoを生成する。
func NewPostgresClinicRepo(db *sql.DB) *PostgresClinicRepo {
	return &PostgresClinicRepo{db: db}
}

// List は全クリニックを登録順（created_at, id）で返す。
func (r *PostgresClinicRepo) List(ctx context.Context) ([]model.Clinic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, address, date, time
		 FROM clinic
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	defer rows.Close()

	clinics := make([]model.Clinic, 0)
	for rows.Next() {
		var c model.Clinic
		var date time.Time
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &date, &c.Time); err != nil {
			return nil, fmt.Errorf("failed to scan clinic: %w", err)
		}
		c.Date = model.DateOf(date)
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clinics: %w", err)
	}

	return clinics, nil
}

// compile-time interface check
var _ ClinicRepository = (*PostgresClinicRepo)(nil)
