package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はパスワードハッシュのデフォルトコスト。
const DefaultBcryptCost = 10

// ErrPasswordTooLong はbcryptが扱える72バイトを超えるパスワードを表す。
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う。
// ソルトはハッシュごとにランダム生成されるため、同じパスワードでも結果は毎回異なる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はDefaultBcryptCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードをハッシュ化する。
func (h *PasswordHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Compare はハッシュと平文パスワードを照合する。
// 不一致の場合はfalse, nilを返し、ハッシュ自体が不正な場合のみエラーを返す。
func (h *PasswordHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}
