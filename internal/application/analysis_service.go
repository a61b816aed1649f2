package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/promptguard/promptguard/internal/domain/entity"
	repo "github.com/promptguard/promptguard/internal/domain/repository"
)

// harmfulKeywords drives the heuristic scorer. Any hit pushes the mock
// jailbreak rate above the safety threshold.
var harmfulKeywords = []string{
	"kill", "murder", "harm", "hurt", "attack", "destroy", "poison",
	"bomb", "hack", "steal", "fraud", "illegal", "violence", "weapon",
	"hate", "discrimination", "suicide", "self-harm", "dangerous",
	"terrorist", "threat", "danger", "gun",
}

const (
	safeThreshold   = 50.0
	unsafeMockRate  = 75.0
	safeMockRate    = 15.0
	historyPageSize = 50
)

type AnalyzeInput struct {
	Prompt           string
	Perturbations    int
	PerturbationType string
	PerturbationPct  int
}

type AnalyzeResult struct {
	JailbreakRate   float64
	IsSafe          bool
	TotalPrompts    int
	JailbrokenCount int
}

// AnalysisService is the thin collaborator around the credential core: it
// scores prompts with a mock heuristic and keeps per-user history.
type AnalysisService struct {
	Repo   repo.AnalysisRepository
	Logger *logrus.Logger
}

func NewAnalysisService(r repo.AnalysisRepository, logger *logrus.Logger) *AnalysisService {
	return &AnalysisService{Repo: r, Logger: logger}
}

// Analyze scores a prompt. When userID is non-empty the result is appended to
// that user's history; a history write failure is logged but does not fail
// the analysis.
func (s *AnalysisService) Analyze(ctx context.Context, userID string, in AnalyzeInput) (AnalyzeResult, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return AnalyzeResult{}, fmt.Errorf("%w: prompt is required", ErrValidation)
	}

	rate := safeMockRate
	lower := strings.ToLower(prompt)
	for _, kw := range harmfulKeywords {
		if strings.Contains(lower, kw) {
			rate = unsafeMockRate
			break
		}
	}
	res := AnalyzeResult{
		JailbreakRate: rate,
		IsSafe:        rate < safeThreshold,
		TotalPrompts:  1,
	}
	if !res.IsSafe {
		res.JailbrokenCount = 1
	}

	if userID != "" {
		a := &entity.PromptAnalysis{
			UserID:           userID,
			Prompt:           prompt,
			IsSafe:           res.IsSafe,
			JailbreakRate:    res.JailbreakRate,
			Perturbations:    in.Perturbations,
			PerturbationType: in.PerturbationType,
			PerturbationPct:  in.PerturbationPct,
		}
		if err := s.Repo.Insert(ctx, a); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("history insert failed")
		}
	}
	return res, nil
}

// History returns the user's most recent checks, newest first.
func (s *AnalysisService) History(ctx context.Context, userID string) ([]entity.PromptAnalysis, error) {
	items, err := s.Repo.ListByUser(ctx, userID, historyPageSize)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// Stats returns the dashboard counters for one user.
func (s *AnalysisService) Stats(ctx context.Context, userID string) (repo.AnalysisStats, error) {
	st, err := s.Repo.StatsByUser(ctx, userID)
	if err != nil {
		return repo.AnalysisStats{}, storeErr(err)
	}
	return st, nil
}

// Export returns the user's full history for the data export endpoint.
func (s *AnalysisService) Export(ctx context.Context, userID string) ([]entity.PromptAnalysis, error) {
	items, err := s.Repo.ListByUser(ctx, userID, 0)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, storeErr(err)
	}
	return items, nil
}
