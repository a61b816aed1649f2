package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/promptguard/promptguard/internal/application"
	"github.com/promptguard/promptguard/internal/interface/middleware"
	"github.com/promptguard/promptguard/pkg/response"
	"github.com/promptguard/promptguard/pkg/validation"
)

type AnalysisHandler struct {
	Svc    *userapp.AnalysisService
	Users  *userapp.Service
	Logger *logrus.Logger
}

func NewAnalysisHandler(svc *userapp.AnalysisService, users *userapp.Service, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{Svc: svc, Users: users, Logger: logger}
}

type analyzeRequest struct {
	Prompt           string `json:"prompt" binding:"required"`
	Perturbations    int    `json:"smoothllm_num_copies"`
	PerturbationType string `json:"smoothllm_pert_type"`
	PerturbationPct  int    `json:"smoothllm_pert_pct"`
}

// Analyze POST /api/analyze works for guests; history is recorded only for
// signed-in callers.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if req.Perturbations <= 0 {
		req.Perturbations = 10
	}
	if req.PerturbationType == "" {
		req.PerturbationType = "RandomPatchPerturbation"
	}
	if req.PerturbationPct <= 0 {
		req.PerturbationPct = 10
	}

	res, err := h.Svc.Analyze(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), userapp.AnalyzeInput{
		Prompt:           req.Prompt,
		Perturbations:    req.Perturbations,
		PerturbationType: req.PerturbationType,
		PerturbationPct:  req.PerturbationPct,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"jb_percentage":    res.JailbreakRate,
		"is_safe":          res.IsSafe,
		"total_prompts":    res.TotalPrompts,
		"jailbroken_count": res.JailbrokenCount,
		"mock_response":    true,
	}, "analysis complete", nil)
}

// History GET /api/history
func (h *AnalysisHandler) History(c *gin.Context) {
	items, err := h.Svc.History(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, gin.H{
			"id":                it.ID,
			"prompt":            it.Prompt,
			"is_safe":           it.IsSafe,
			"jailbreak_rate":    it.JailbreakRate,
			"perturbations":     it.Perturbations,
			"perturbation_type": it.PerturbationType,
			"perturbation_pct":  it.PerturbationPct,
			"created_at":        it.CreatedAt,
		})
	}
	response.Success(c, http.StatusOK, gin.H{"history": out}, "history", nil)
}

// Stats GET /api/user/stats
func (h *AnalysisHandler) Stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	avg := float64(int(st.AvgJailbreakRate*10+0.5)) / 10
	response.Success(c, http.StatusOK, gin.H{
		"total_analyses":     st.Total,
		"safe_prompts":       st.Safe,
		"unsafe_prompts":     st.Unsafe,
		"avg_jailbreak_rate": avg,
	}, "stats", nil)
}

// Export GET /api/user/export returns the profile plus full history.
func (h *AnalysisHandler) Export(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Users.GetProfile(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	items, err := h.Svc.Export(c.Request.Context(), uid)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	history := make([]gin.H, 0, len(items))
	for _, it := range items {
		history = append(history, gin.H{
			"id":                it.ID,
			"prompt":            it.Prompt,
			"is_safe":           it.IsSafe,
			"jailbreak_rate":    it.JailbreakRate,
			"perturbations":     it.Perturbations,
			"perturbation_type": it.PerturbationType,
			"perturbation_pct":  it.PerturbationPct,
			"created_at":        it.CreatedAt,
		})
	}
	response.Success(c, http.StatusOK, gin.H{
		"user": gin.H{
			"id":         u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"created_at": u.CreatedAt,
		},
		"history":       history,
		"export_date":   time.Now().UTC(),
		"total_records": len(history),
	}, "export", nil)
}
