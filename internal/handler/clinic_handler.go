package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/pinkpulse/internal/middleware"
	"github.com/hitoshi/pinkpulse/internal/model"
)

// ClinicServiceInterface はクリニックハンドラーが必要とするサービスインターフェース。
type ClinicServiceInterface interface {
	List(ctx context.Context) ([]model.Clinic, error)
}

// ClinicHandler はクリニック情報のHTTPハンドラー。
type ClinicHandler struct {
	service ClinicServiceInterface
}

// NewClinicHandler はClinicHandlerを生成する。
func NewClinicHandler(service ClinicServiceInterface) *ClinicHandler {
	return &ClinicHandler{service: service}
}

// GetData は全クリニックをJSON配列で返す。0件の場合は [] を返す。
// GET /api/clinic/GetData
func (h *ClinicHandler) GetData(w http.ResponseWriter, r *http.Request) {
	clinics, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if clinics == nil {
		clinics = []model.Clinic{}
	}

	// Bearer認証を通過した場合のみクレームが存在する
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		slog.Debug("clinic list requested",
			slog.String("user_id", claims.UserID),
			slog.String("email", claims.Email),
			slog.Int("count", len(clinics)),
		)
	}

	writeJSON(w, http.StatusOK, clinics)
}
