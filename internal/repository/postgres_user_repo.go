package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/pinkpulse/internal/model"
)

// uniqueViolation はPostgreSQLのunique_violationのSQLSTATE。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var dob time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, whatsapp_number, dob, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.WhatsappNumber, &dob, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	user.DateOfBirth = model.DateOf(dob)
	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash, whatsapp_number, dob)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		user.ID, user.Email, user.PasswordHash, user.WhatsappNumber, user.DateOfBirth.String(),
	).Scan(&user.CreatedAt)
	if err != nil {
		return mapPostgresInsertError(err)
	}

	return nil
}

// mapPostgresInsertError はユニーク制約違反をErrDuplicateEmailに変換する。
func mapPostgresInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicateEmail
	}
	return fmt.Errorf("failed to insert user: %w", err)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
