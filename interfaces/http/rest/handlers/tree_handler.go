package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/queries"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/common"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
)

// maxListLimit caps how many trees one request may ask for.
const maxListLimit = 100

// TreeHandler handles saved-tree HTTP requests. Trees are read-only
// through this surface; edits go through a live exploration session.
type TreeHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{
		queryBus: queryBus,
		logger:   logger,
	}
}

// ListTrees handles GET /trees
func (h *TreeHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	params := common.ExtractListParams(r, queries.DefaultListLimit, maxListLimit)

	query := queries.ListTreesQuery{
		UserID: userCtx.UserID,
		Limit:  params.Limit,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to list trees",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to list trees")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// GetTree handles GET /trees/{treeID}
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	treeID := chi.URLParam(r, "treeID")
	if treeID == "" {
		h.respondError(w, http.StatusBadRequest, "Tree ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.GetTreeQuery{
		UserID: userCtx.UserID,
		TreeID: treeID,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get tree",
			zap.String("treeID", treeID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to retrieve tree")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// SearchTopics handles GET /trees/search
func (h *TreeHandler) SearchTopics(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.respondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	query := queries.SearchTopicsQuery{
		UserID: userCtx.UserID,
		Query:  q,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to search topics",
			zap.String("userID", userCtx.UserID),
			zap.String("query", q),
			zap.Error(err),
		)
		h.respondQueryError(w, err, "Failed to search topics")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// Helper methods

func (h *TreeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *TreeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func (h *TreeHandler) respondQueryError(w http.ResponseWriter, err error, fallback string) {
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
