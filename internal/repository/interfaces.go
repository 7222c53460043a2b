// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/pinkpulse/internal/model"
)

// ErrDuplicateEmail はメールアドレスのユニーク制約違反を表す。
// 事前チェックをすり抜けた同時登録もストア側の制約でこのエラーになる。
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番したIDと作成日時をuserに設定する。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error
}

// ClinicRepository はクリニックデータの読み取りインターフェース。
type ClinicRepository interface {
	// List は全クリニックを登録順に返す。0件の場合は空スライスを返す。
	List(ctx context.Context) ([]model.Clinic, error)
}
