package server

import (
	"net/http"

	"github.com/Solvium/SolviumAI-sub000/auth"
	apperrors "github.com/Solvium/SolviumAI-sub000/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RewardHandler bridges the reward service to HTTP routes.
type RewardHandler struct {
	app    *App
	logger zerolog.Logger
}

// NewRewardHandler creates a reward handler.
func NewRewardHandler(app *App) *RewardHandler {
	return &RewardHandler{
		app:    app,
		logger: app.logger.With().Str("handler", "reward").Logger(),
	}
}

func (h *RewardHandler) accountID(c *gin.Context) (string, bool) {
	accountID, ok := auth.GetAccountID(c)
	if !ok || accountID == "" {
		ErrorWithMessage(c, http.StatusUnauthorized, "missing account identity")
		return "", false
	}
	return accountID, true
}

// Spin handles POST /api/rewards/spin
func (h *RewardHandler) Spin(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	result, err := h.app.rewardService.Spin(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, result)
}

// GetPrize handles GET /api/rewards/prize
func (h *RewardHandler) GetPrize(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	prize, err := h.app.rewardService.CurrentPrize(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	if prize == nil {
		NotFound(c, apperrors.New(apperrors.ErrNoUnclaimedPrize, "no unclaimed prize"))
		return
	}
	OK(c, prize)
}

// Claim handles POST /api/rewards/claim
func (h *RewardHandler) Claim(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	result, err := h.app.rewardService.Claim(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, result)
}

// Abandon handles POST /api/rewards/abandon
func (h *RewardHandler) Abandon(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	if err := h.app.rewardService.AbandonPrize(c.Request.Context(), accountID); err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, gin.H{"abandoned": true})
}

// PurchaseSpin handles POST /api/rewards/purchase-spin
func (h *RewardHandler) PurchaseSpin(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	result, err := h.app.rewardService.PurchaseSpin(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, result)
}

// GetEligibility handles GET /api/rewards/eligibility
func (h *RewardHandler) GetEligibility(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	result, err := h.app.rewardService.Eligibility(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, result)
}

// GetPoints handles GET /api/rewards/points
func (h *RewardHandler) GetPoints(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	summary, err := h.app.rewardService.Points(c.Request.Context(), accountID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	OK(c, summary)
}

// GetPrizeTable handles GET /api/rewards/prize-table
func (h *RewardHandler) GetPrizeTable(c *gin.Context) {
	OK(c, h.app.prizeTable.Entries())
}
