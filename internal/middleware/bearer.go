// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/pinkpulse/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	claimsContextKey = contextKey("token_claims")
	userIDContextKey = contextKey("user_id")
)

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// auth.TokenIssuerが実装する。
type TokenVerifier interface {
	Verify(raw string) (*model.TokenClaims, error)
}

// TokenEventRecorder はトークン検証結果を記録する。nilの場合は記録しない。
type TokenEventRecorder interface {
	RecordAuthEvent(event, result string)
}

// NewBearerAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証するミドルウェアを返す。
// ヘッダーが無い、または形式不正の場合は401、トークンが無効な場合は403を返す。
// 検証済みのクレームとユーザーIDをリクエストコンテキストに注入する。
func NewBearerAuthMiddleware(verifier TokenVerifier, events TokenEventRecorder) func(next http.Handler) http.Handler {
	record := func(result string) {
		if events != nil {
			events.RecordAuthEvent("token", result)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				record("missing")
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingTokenError())
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				record("invalid")
				slog.Info("token rejected",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewInvalidTokenError())
				return
			}

			record("valid")
			setLoggedUserID(r.Context(), claims.UserID)

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// bearerToken は "Bearer <token>" 形式のヘッダー値からトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsRune(token, ' ') {
		return "", false
	}
	return token, true
}

// ClaimsFromContext はリクエストコンテキストから検証済みクレームを取得する。
func ClaimsFromContext(ctx context.Context) (*model.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*model.TokenClaims)
	return claims, ok && claims != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// Bearer認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextWithClaims は検証済みクレームとそのユーザーIDをコンテキストに注入する。
func ContextWithClaims(ctx context.Context, claims *model.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, claimsContextKey, claims)
	return context.WithValue(ctx, userIDContextKey, claims.UserID)
}
