package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresClinicRepoはClinicRepositoryインターフェースを満たすことを検証
func TestPostgresClinicRepo_ImplementsInterface(t *testing.T) {
	var _ ClinicRepository = (*PostgresClinicRepo)(nil)
}

func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresClinicRepo_Initializes(t *testing.T) {
	repo := NewPostgresClinicRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユニーク制約違反（23505）はErrDuplicateEmailに変換される
func TestMapPostgresInsertError_UniqueViolation(t *testing.T) {
	err := mapPostgresInsertError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

// ラップされていても制約違反を検出する
func TestMapPostgresInsertError_WrappedUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("exec: %w", &pq.Error{Code: "23505"})
	if err := mapPostgresInsertError(wrapped); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

// それ以外のエラーは重複扱いにせず、元のエラーを保持する
func TestMapPostgresInsertError_OtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not null violation", &pq.Error{Code: "23502"}},
		{"connection error", errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapPostgresInsertError(tt.err)
			if errors.Is(err, ErrDuplicateEmail) {
				t.Fatal("should not be mapped to ErrDuplicateEmail")
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("original error should be wrapped: %v", err)
			}
		})
	}
}
