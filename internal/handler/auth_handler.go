// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/pinkpulse/internal/auth"
	"github.com/hitoshi/pinkpulse/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// AuthHandler はユーザー登録・サインインのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// signupRequest はユーザー登録リクエストのボディ。
type signupRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	WhatsappNumber string `json:"whatsappNumber"`
	DOB            string `json:"dob"`
}

// signupResponse はユーザー登録成功時のレスポンス。パスワードハッシュは含まない。
type signupResponse struct {
	Msg  string      `json:"msg"`
	User *model.User `json:"user"`
}

// signinRequest はサインインリクエストのボディ。
type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signinResponse はサインイン成功時のレスポンス。
type signinResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
}

// Signup はユーザー登録を処理する。
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		WhatsappNumber: req.WhatsappNumber,
		DateOfBirth:    req.DOB,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		Msg:  "User registered successfully",
		User: user,
	})
}

// Signin はパスワード認証を行い、アクセストークンを返す。
// POST /signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, signinResponse{
		Msg:   "Sign In Successful",
		Token: token,
	})
}
