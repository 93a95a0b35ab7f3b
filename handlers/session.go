package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
)

// StartSession allocates a fresh planning session and greets the user.
func (api *API) StartSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	s, err := api.Engine.StartSession(userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":        true,
		"session_id":     s.ID,
		"workflow_state": s.WorkflowState,
		"message":        s.Conversation[len(s.Conversation)-1].Text,
	})
}

// guardOwner hides sessions created by a signed-in user from other callers.
// Anonymous sessions stay open to anyone holding the session id.
func (api *API) guardOwner(r *http.Request, id string) (*models.Session, error) {
	s, err := api.Engine.GetSession(id)
	if err != nil {
		return nil, err
	}
	if s.CreatedBy == "" {
		return s, nil
	}
	if userID, ok := middleware.UserIDFromContext(r.Context()); !ok || userID != s.CreatedBy {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

// GetSession returns the full session state.
func (api *API) GetSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	s, err := api.guardOwner(r, sessionID(ps))
	if err != nil {
		utils.RespondWithError(w, statusFor(err), "session not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "session": s})
}

// ListSessions returns the authenticated user's sessions, newest first.
func (api *API) ListSessions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sessions := api.Engine.Sessions(userID)
	summaries := make([]utils.M, 0, len(sessions))
	for _, s := range sessions {
		summary := utils.M{
			"session_id":     s.ID,
			"workflow_state": s.WorkflowState,
			"created_at":     s.CreatedAt,
			"last_access":    s.LastAccess,
		}
		if s.TripInfo != nil {
			summary["destination"] = s.TripInfo.Destination
		}
		summaries = append(summaries, summary)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success":  true,
		"count":    len(summaries),
		"sessions": summaries,
	})
}

type turnRequest struct {
	Message string `json:"message"`
}

// RunAgentTurn runs one conversational exchange against a session. A turn
// that completes with a downstream failure still answers 200; the body's
// success flag is the error signal.
func (api *API) RunAgentTurn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req turnRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	if _, err := api.guardOwner(r, sessionID(ps)); err != nil {
		utils.RespondWithError(w, statusFor(err), "session not found")
		return
	}

	res, err := api.Engine.RunTurn(r.Context(), sessionID(ps), req.Message)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondWithError(w, statusFor(err), "turn failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

type modifyDayRequest struct {
	Message string `json:"message"`
}

// ModifyDay revises one expanded day of a session.
func (api *API) ModifyDay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	day, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid day number")
		return
	}
	var req modifyDayRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "message is required")
		return
	}
	if _, err := api.guardOwner(r, sessionID(ps)); err != nil {
		utils.RespondWithError(w, statusFor(err), "session not found")
		return
	}

	res, err := api.Engine.ModifyDay(r.Context(), sessionID(ps), day, req.Message)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondWithError(w, statusFor(err), "modify failed")
		return
	}
	status := http.StatusOK
	if res.Err != nil && !errors.Is(res.Err, models.ErrCollaboratorFailure) {
		status = statusFor(res.Err)
	}
	utils.RespondWithJSON(w, status, res)
}

// UpdateTripInfo merges explicit trip fields into a session.
func (api *API) UpdateTripInfo(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var info models.TripInfo
	if err := decodeStrict(r, &info); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := api.guardOwner(r, sessionID(ps)); err != nil {
		utils.RespondWithError(w, statusFor(err), "session not found")
		return
	}

	updated, err := api.Engine.UpdateTripInfo(sessionID(ps), &info)
	if err != nil {
		utils.RespondWithError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "trip_info": updated})
}

type selectActivitiesRequest struct {
	ActivityIDs []string `json:"activity_ids"`
}

// SelectActivities records the user's activity picks for later searches.
func (api *API) SelectActivities(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req selectActivitiesRequest
	if err := decodeStrict(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := api.guardOwner(r, sessionID(ps)); err != nil {
		utils.RespondWithError(w, statusFor(err), "session not found")
		return
	}

	kept, err := api.Engine.SelectActivities(sessionID(ps), req.ActivityIDs)
	if err != nil {
		utils.RespondWithError(w, statusFor(err), err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "selected_activity_ids": kept})
}
