package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/commands/bus"
	"github.com/Anidipta/Node-Learner/application/queries"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/common"
	pkgerrors "github.com/Anidipta/Node-Learner/pkg/errors"
	"github.com/Anidipta/Node-Learner/pkg/utils"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// link request well under a kilobyte.
const maxBodyBytes = 1 << 20

// ExplorationHandler handles exploration session HTTP requests: starting
// and resuming sessions, expanding and editing the live graph, and the
// save/end lifecycle.
type ExplorationHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewExplorationHandler creates a new exploration handler
func NewExplorationHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *ExplorationHandler {
	return &ExplorationHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// StartExplorationRequest represents the request body for starting an exploration
type StartExplorationRequest struct {
	Topic      string `json:"topic" validate:"required,min=1,max=100"`
	Depth      int    `json:"depth,omitempty" validate:"omitempty,min=1,max=3"`
	AutoExpand bool   `json:"auto_expand,omitempty"`
}

// ResumeExplorationRequest represents the request body for resuming a
// saved tree. Exactly one of topic or tree_id must be set.
type ResumeExplorationRequest struct {
	Topic  string `json:"topic,omitempty" validate:"omitempty,min=1,max=100"`
	TreeID string `json:"tree_id,omitempty"`
}

// ExpandConceptRequest represents the request body for expanding a concept
type ExpandConceptRequest struct {
	Label string `json:"label" validate:"required,min=1,max=100"`
}

// FocusConceptRequest represents the request body for moving the focus.
// Either label or node_id addresses the concept.
type FocusConceptRequest struct {
	Label  string `json:"label,omitempty" validate:"omitempty,max=100"`
	NodeID string `json:"node_id,omitempty"`
}

// LinkConceptsRequest represents the request body for a manual edge
type LinkConceptsRequest struct {
	Source string `json:"source" validate:"required,min=1,max=100"`
	Target string `json:"target" validate:"required,min=1,max=100"`
	Title  string `json:"title,omitempty" validate:"omitempty,max=100"`
	Weight int    `json:"weight,omitempty"`
}

// StartExploration handles POST /explorations
func (h *ExplorationHandler) StartExploration(w http.ResponseWriter, r *http.Request) {
	var req StartExplorationRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.StartExplorationCommand{
		UserID:     userCtx.UserID,
		Topic:      req.Topic,
		Depth:      req.Depth,
		AutoExpand: req.AutoExpand,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to start exploration",
			zap.String("userID", userCtx.UserID),
			zap.String("topic", req.Topic),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to start exploration")
		return
	}

	h.respondJSON(w, http.StatusCreated, cmd.Result)
}

// ResumeExploration handles POST /explorations/resume
func (h *ExplorationHandler) ResumeExploration(w http.ResponseWriter, r *http.Request) {
	var req ResumeExplorationRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.ResumeExplorationCommand{
		UserID: userCtx.UserID,
		Topic:  req.Topic,
		TreeID: req.TreeID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to resume exploration",
			zap.String("userID", userCtx.UserID),
			zap.String("topic", req.Topic),
			zap.String("treeID", req.TreeID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to resume exploration")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// GetGraph handles GET /explorations/{sessionID}/graph
func (h *ExplorationHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.GetGraphQuery{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.logger.Error("Failed to get graph",
			zap.String("sessionID", sessionID),
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to retrieve graph")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// ExpandConcept handles POST /explorations/{sessionID}/expand
func (h *ExplorationHandler) ExpandConcept(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	var req ExpandConceptRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.ExpandConceptCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
		Label:     req.Label,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to expand concept",
			zap.String("sessionID", sessionID),
			zap.String("label", req.Label),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to expand concept")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// AutoExpandStep handles POST /explorations/{sessionID}/auto-expand/step
func (h *ExplorationHandler) AutoExpandStep(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.AutoExpandStepCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Auto-expand step failed",
			zap.String("sessionID", sessionID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Auto-expand step failed")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// FocusConcept handles POST /explorations/{sessionID}/focus
func (h *ExplorationHandler) FocusConcept(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	var req FocusConceptRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Label == "" && req.NodeID == "" {
		h.respondError(w, http.StatusBadRequest, "Either label or node_id is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.FocusConceptCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
		Label:     req.Label,
		NodeID:    req.NodeID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to focus concept",
			zap.String("sessionID", sessionID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to focus concept")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// RemoveConcept handles DELETE /explorations/{sessionID}/nodes/{nodeID}
func (h *ExplorationHandler) RemoveConcept(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	nodeID := chi.URLParam(r, "nodeID")
	if sessionID == "" || nodeID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID and node ID are required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.RemoveConceptCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
		NodeID:    nodeID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to remove concept",
			zap.String("sessionID", sessionID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to remove concept")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// LinkConcepts handles POST /explorations/{sessionID}/links
func (h *ExplorationHandler) LinkConcepts(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	var req LinkConceptsRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.LinkConceptsCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
		Source:    req.Source,
		Target:    req.Target,
		Title:     req.Title,
		Weight:    req.Weight,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to link concepts",
			zap.String("sessionID", sessionID),
			zap.String("source", req.Source),
			zap.String("target", req.Target),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to link concepts")
		return
	}

	h.respondJSON(w, http.StatusCreated, cmd.Result)
}

// SaveTree handles POST /explorations/{sessionID}/save
func (h *ExplorationHandler) SaveTree(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.SaveTreeCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to save tree",
			zap.String("sessionID", sessionID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to save tree")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// EndSession handles POST /explorations/{sessionID}/end
func (h *ExplorationHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		h.respondError(w, http.StatusBadRequest, "Session ID is required")
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	cmd := &commands.EndSessionCommand{
		SessionID: sessionID,
		UserID:    userCtx.UserID,
	}

	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.logger.Error("Failed to end session",
			zap.String("sessionID", sessionID),
			zap.Error(err),
		)
		h.respondCommandError(w, err, "Failed to end session")
		return
	}

	h.respondJSON(w, http.StatusOK, cmd.Result)
}

// Helper methods

func (h *ExplorationHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *ExplorationHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

// respondCommandError maps bus and domain errors onto HTTP statuses.
// Typed domain errors carry their own status; anything untyped is an
// internal failure reported with the fallback message.
func (h *ExplorationHandler) respondCommandError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, bus.ErrValidationFailed) || errors.Is(err, querybus.ErrValidationFailed) {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		h.respondJSON(w, status, map[string]interface{}{
			"error":     true,
			"message":   appErr.Message,
			"code":      status,
			"type":      string(appErr.Type),
			"retryable": appErr.Retryable,
		})
		return
	}

	h.respondError(w, http.StatusInternalServerError, fallback)
}
