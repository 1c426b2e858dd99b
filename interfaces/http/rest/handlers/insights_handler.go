package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/queries"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/common"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// maxHistoryLimit caps how many session records one request may ask
// for. Zero limit defers to the query handler's default window.
const maxHistoryLimit = 200

// InsightsHandler handles learning-history, dashboard and explanation
// HTTP requests. These are derived reads over the session log and the
// explorer; nothing here mutates state.
type InsightsHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// GetHistory handles GET /history
func (h *InsightsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := common.ExtractListParams(r, 0, maxHistoryLimit)

	query := queries.GetHistoryQuery{
		UserID: userCtx.UserID,
		Limit:  params.Limit,
		Period: params.Period,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get history",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to retrieve history")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetDashboardStats handles GET /dashboard/stats
func (h *InsightsHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.GetDashboardStatsQuery{
		UserID: userCtx.UserID,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get dashboard stats",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to retrieve dashboard stats")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetExplanation handles GET /explanations
func (h *InsightsHandler) GetExplanation(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		h.respondError(w, http.StatusBadRequest, "Query parameter topic is required")
		return
	}

	query := queries.GetExplanationQuery{
		UserID: userCtx.UserID,
		Topic:  topic,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get explanation",
			zap.String("userID", userCtx.UserID),
			zap.String("topic", topic),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to retrieve explanation")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Helper methods

func (h *InsightsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *InsightsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func (h *InsightsHandler) respondQueryError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, querybus.ErrValidationFailed) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		h.respondError(w, status, appErr.Message)
		return
	}

	h.respondError(w, http.StatusInternalServerError, fallback)
}
