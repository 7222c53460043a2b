// Package clinic はクリニック情報の参照を提供する。
package clinic

import (
	"context"
	"fmt"

	"github.com/hitoshi/pinkpulse/internal/model"
	"github.com/hitoshi/pinkpulse/internal/repository"
)

// Service はクリニック一覧の取得を提供する。
type Service struct {
	repo repository.ClinicRepository
}

// NewService はServiceを生成する。
func NewService(repo repository.ClinicRepository) *Service {
	return &Service{repo: repo}
}

// List は全クリニックをストアの順序で返す。
// 0件の場合もnilではなく空スライスを返すため、JSONでは [] になる。
func (s *Service) List(ctx context.Context) ([]model.Clinic, error) {
	clinics, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	if clinics == nil {
		clinics = []model.Clinic{}
	}
	return clinics, nil
}
