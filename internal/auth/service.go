// Package auth はユーザー登録、パスワード認証、アクセストークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/pinkpulse/internal/model"
	"github.com/hitoshi/pinkpulse/internal/repository"
)

// 認証イベントの種別
const (
	EventSignup = "signup"
	EventSignin = "signin"
)

// 認証イベントの結果
const (
	ResultSuccess       = "success"
	ResultInvalid       = "invalid_request"
	ResultDuplicate     = "duplicate_email"
	ResultNotFound      = "user_not_found"
	ResultBadCredential = "invalid_credential"
	ResultError         = "error"
)

// EventRecorder は認証イベントを記録する。metrics.Collectorが実装する。
type EventRecorder interface {
	RecordAuthEvent(event, result string)
}

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Email          string
	Password       string
	WhatsappNumber string
	DateOfBirth    string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	events   EventRecorder
}

// NewService はServiceを生成する。eventsはnilでもよい。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenIssuer,
	events EventRecorder,
) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
	}
}

// Register はユーザーを登録する。
// メールアドレスの重複は事前検索とストアのユニーク制約の両方で検出し、
// どちらの場合もDUPLICATE_EMAILを返す。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	whatsapp := strings.TrimSpace(in.WhatsappNumber)

	switch {
	case email == "":
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("email is required"))
	case in.Password == "":
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("password is required"))
	case whatsapp == "":
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("whatsappNumber is required"))
	case strings.TrimSpace(in.DateOfBirth) == "":
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("dob is required"))
	}

	dob, err := model.ParseDate(in.DateOfBirth)
	if err != nil {
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("dob must be a date in YYYY-MM-DD format"))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.record(EventSignup, ResultError)
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, s.fail(EventSignup, ResultDuplicate, model.NewDuplicateEmailError())
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, ErrPasswordTooLong) {
		return nil, s.fail(EventSignup, ResultInvalid, model.NewInvalidRequestError("password must be at most 72 bytes"))
	}
	if err != nil {
		s.record(EventSignup, ResultError)
		return nil, err
	}

	user := &model.User{
		Email:          email,
		PasswordHash:   hash,
		WhatsappNumber: whatsapp,
		DateOfBirth:    dob,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 事前検索と挿入の間に同じメールアドレスが登録された
			slog.Warn("duplicate email detected by store constraint")
			return nil, s.fail(EventSignup, ResultDuplicate, model.NewDuplicateEmailError())
		}
		s.record(EventSignup, ResultError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.record(EventSignup, ResultSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))

	return user, nil
}

// Authenticate はメールアドレスとパスワードを照合し、アクセストークンを発行する。
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", s.fail(EventSignin, ResultInvalid, model.NewInvalidRequestError("email is required"))
	}
	if password == "" {
		return "", s.fail(EventSignin, ResultInvalid, model.NewInvalidRequestError("password is required"))
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.record(EventSignin, ResultError)
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", s.fail(EventSignin, ResultNotFound, model.NewUserNotFoundError())
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		s.record(EventSignin, ResultError)
		return "", err
	}
	if !ok {
		slog.Info("signin rejected", slog.String("user_id", user.ID), slog.String("reason", "password mismatch"))
		return "", s.fail(EventSignin, ResultBadCredential, model.NewInvalidCredentialError())
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.record(EventSignin, ResultError)
		return "", err
	}

	s.record(EventSignin, ResultSuccess)
	slog.Info("user signed in", slog.String("user_id", user.ID))

	return token, nil
}

func (s *Service) fail(event, result string, apiErr *model.APIError) error {
	s.record(event, result)
	return apiErr
}

func (s *Service) record(event, result string) {
	if s.events != nil {
		s.events.RecordAuthEvent(event, result)
	}
}
