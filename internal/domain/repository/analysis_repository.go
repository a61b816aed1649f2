package repository

import (
	"context"

	"github.com/promptguard/promptguard/internal/domain/entity"
)

// AnalysisStats aggregates a user's stored prompt checks.
type AnalysisStats struct {
	Total            int64
	Safe             int64
	Unsafe           int64
	AvgJailbreakRate float64
}

// AnalysisRepository stores prompt analysis history.
type AnalysisRepository interface {
	Insert(ctx context.Context, a *entity.PromptAnalysis) error
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.PromptAnalysis, error)
	StatsByUser(ctx context.Context, userID string) (AnalysisStats, error)
}
