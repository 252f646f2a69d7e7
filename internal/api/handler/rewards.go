package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ecosphere/ecosphere/internal/api/models"
	"github.com/ecosphere/ecosphere/internal/api/response"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/rewards"
	"github.com/ecosphere/ecosphere/internal/user"
)

// RewardsHandler handles the reward catalog and redemptions.
type RewardsHandler struct {
	rewards *rewards.Service
	logger  zerolog.Logger
}

// NewRewardsHandler creates a new RewardsHandler.
func NewRewardsHandler(rewardsService *rewards.Service, logger zerolog.Logger) *RewardsHandler {
	return &RewardsHandler{rewards: rewardsService, logger: logger}
}

// ListRewards handles GET /v1/rewards[?category=].
func (h *RewardsHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	list := rewards.Catalog()
	if category := r.URL.Query().Get("category"); category != "" {
		list = rewards.ByCategory(rewards.Category(category))
	}
	if list == nil {
		list = []rewards.Reward{}
	}

	response.JSON(w, r, http.StatusOK, models.RewardList{Rewards: list})
}

// Redeem handles POST /v1/rewards/{rewardId}/redeem.
func (h *RewardsHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID, err := strconv.Atoi(chi.URLParam(r, "rewardId"))
	if err != nil {
		response.BadRequest(w, r, "validation error", []models.FieldError{
			{Field: "rewardId", Message: "rewardId must be an integer", Code: "INVALID"},
		})
		return
	}

	outcome, reward, err := h.rewards.Redeem(r.Context(), GetUserID(r.Context()), rewardID)
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrRewardNotFound):
			response.NotFound(w, r, "reward not found")
		case errors.Is(err, rewards.ErrRewardUnavailable):
			response.Conflict(w, r, fmt.Sprintf("reward %q is not available", reward.Name))
		case errors.Is(err, progression.ErrInsufficientPoints):
			response.InsufficientPoints(w, r, fmt.Sprintf("reward %q costs %d points", reward.Name, reward.Points))
		case errors.Is(err, user.ErrUserNotFound):
			response.NotFound(w, r, "user not found")
		default:
			internalError(w, r, h.logger, err, "redemption failed")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.Redemption{
		Reward:       reward,
		ActionResult: models.NewActionResult(outcome),
	})
}
