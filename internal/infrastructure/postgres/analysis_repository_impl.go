package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptguard/promptguard/internal/domain/entity"
	"github.com/promptguard/promptguard/internal/domain/repository"
)

type AnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepository(pool *pgxpool.Pool) *AnalysisRepository {
	return &AnalysisRepository{pool: pool}
}

func (r *AnalysisRepository) Insert(ctx context.Context, a *entity.PromptAnalysis) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prompt_history (user_id, prompt, is_safe, jailbreak_rate, perturbations, perturbation_type, perturbation_pct)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, a.UserID, a.Prompt, a.IsSafe, a.JailbreakRate, a.Perturbations, a.PerturbationType, a.PerturbationPct)

	return row.Scan(&a.ID, &a.CreatedAt)
}

// ListByUser returns history newest first. limit <= 0 means no limit.
func (r *AnalysisRepository) ListByUser(ctx context.Context, userID string, limit int) ([]entity.PromptAnalysis, error) {
	query := `
		SELECT id, user_id, prompt, is_safe, jailbreak_rate, perturbations, perturbation_type, perturbation_pct, created_at
		FROM prompt_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entity.PromptAnalysis, 0)
	for rows.Next() {
		var a entity.PromptAnalysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Prompt, &a.IsSafe, &a.JailbreakRate,
			&a.Perturbations, &a.PerturbationType, &a.PerturbationPct, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *AnalysisRepository) StatsByUser(ctx context.Context, userID string) (repository.AnalysisStats, error) {
	var st repository.AnalysisStats
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_safe),
		       COUNT(*) FILTER (WHERE NOT is_safe),
		       COALESCE(AVG(jailbreak_rate), 0)
		FROM prompt_history
		WHERE user_id = $1
	`, userID)
	if err := row.Scan(&st.Total, &st.Safe, &st.Unsafe, &st.AvgJailbreakRate); err != nil {
		return repository.AnalysisStats{}, err
	}
	return st, nil
}

var _ repository.AnalysisRepository = (*AnalysisRepository)(nil)
