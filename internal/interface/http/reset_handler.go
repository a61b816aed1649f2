package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/promptguard/promptguard/internal/application"
	"github.com/promptguard/promptguard/pkg/response"
	"github.com/promptguard/promptguard/pkg/validation"
)

type ResetHandler struct {
	Svc    *userapp.ResetService
	Logger *logrus.Logger
}

func NewResetHandler(svc *userapp.ResetService, logger *logrus.Logger) *ResetHandler {
	return &ResetHandler{Svc: svc, Logger: logger}
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
}

// ForgotPassword POST /api/forgot-password
// The response is the same whether or not the account exists.
func (h *ResetHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.IssueReset(c.Request.Context(), req.Email); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "if the email exists, a reset link has been sent", nil)
}

// ResetPassword POST /api/reset-password
func (h *ResetHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.RedeemReset(c.Request.Context(), req.Token, req.Password); err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password reset successfully", nil)
}
