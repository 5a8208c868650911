package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/internal/models"
	"github.com/stitts-dev/fight-edge/internal/repository"
	"github.com/stitts-dev/fight-edge/internal/services"
	"github.com/stitts-dev/fight-edge/pkg/utils"
)

// RunManager is the part of RunService the handlers need.
type RunManager interface {
	Run(ctx context.Context, req services.RunRequest) (*services.RunOutcome, error)
	Get(ctx context.Context, ownerID, id string) (models.AnalysisRun, error)
	List(ctx context.Context, ownerID string, limit int) ([]models.RunListItem, error)
}

type AnalysisHandler struct {
	runs   RunManager
	logger *logrus.Logger
}

func NewAnalysisHandler(runs RunManager, logger *logrus.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		runs:   runs,
		logger: logger,
	}
}

type CreateAnalysisRequest struct {
	// RunID lets the caller open the progress websocket before posting.
	RunID string       `json:"runId" binding:"omitempty,uuid"`
	Title string       `json:"title" binding:"max=200"`
	Event models.Event `json:"event" binding:"required"`
}

// AnalysisDetail is a stored run with its ranking recomputed for display.
type AnalysisDetail struct {
	Run    models.AnalysisRun   `json:"run"`
	TopBet *models.EdgeSummary  `json:"topBet,omitempty"`
	Ranked []models.EdgeSummary `json:"ranked"`
}

// CreateAnalysis runs a card and stores the run. Matchups that failed are
// reported in the response next to the partial result.
func (h *AnalysisHandler) CreateAnalysis(c *gin.Context) {
	var request CreateAnalysisRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithError(err).Warn("Invalid analysis request")
		utils.SendValidationError(c, "Invalid request format", err.Error())
		return
	}

	owner := c.GetString("user_id")
	h.logger.WithFields(logrus.Fields{
		"user_id":  owner,
		"event":    request.Event.Name,
		"matchups": len(request.Event.Matchups),
	}).Info("Processing card analysis request")

	outcome, err := h.runs.Run(c.Request.Context(), services.RunRequest{
		OwnerID: owner,
		RunID:   request.RunID,
		Title:   request.Title,
		Event:   request.Event,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInputInvalid):
			utils.SendError(c, utils.NewAppError(utils.ErrCodeInvalidCard, "Card cannot be analyzed", err.Error()))
		case errors.Is(err, services.ErrRateLimited):
			utils.SendError(c, utils.NewAppError(utils.ErrCodeRateLimited, "Too many analysis runs", err.Error()))
		case errors.Is(err, services.ErrRunCanceled):
			h.logger.WithField("user_id", owner).Info("Client went away before analysis finished")
			utils.SendError(c, utils.NewAppError(utils.ErrCodeCanceled, "Analysis canceled"))
		default:
			h.logger.WithError(err).Error("Card analysis failed")
			utils.SendError(c, utils.NewAppError(utils.ErrCodeAnalysis, "Failed to analyze card"))
		}
		return
	}

	utils.SendCreated(c, outcome)
}

func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.SendValidationError(c, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := h.runs.List(c.Request.Context(), c.GetString("user_id"), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list analysis runs")
		utils.SendInternalError(c, "Failed to list analyses")
		return
	}

	utils.SendPage(c, items, limit, len(items))
}

func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	run, err := h.runs.Get(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			utils.SendNotFound(c, "Analysis not found")
			return
		}
		h.logger.WithError(err).Error("Failed to load analysis run")
		utils.SendInternalError(c, "Failed to load analysis")
		return
	}

	detail := AnalysisDetail{
		Run:    run,
		Ranked: services.RankSummaries(run.Summaries),
	}
	if top, ok := services.TopBet(run.Summaries); ok {
		detail.TopBet = &top
	}
	utils.SendSuccess(c, detail)
}
