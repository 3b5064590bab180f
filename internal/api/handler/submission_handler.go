package handler

import (
	"encoding/json"
	"net/http"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/platform/kv"

	"github.com/go-chi/chi/v5"
)

type SubmissionHandler struct {
	submissionService *service.SubmissionService
	sessionService    *service.SessionService
	cooldownGate      *kv.CooldownGate
}

func NewSubmissionHandler(ss *service.SubmissionService, sess *service.SessionService, gate *kv.CooldownGate) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss, sessionService: sess, cooldownGate: gate}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.sessionService))

	r.Post("/run/{problemId}", h.run)

	r.Group(func(throttled chi.Router) {
		throttled.Use(middleware.SubmissionCooldown(h.cooldownGate))
		throttled.Post("/submit/{problemId}", h.submit)
	})

	r.Get("/history/{problemId}", h.history)
}

func (h *SubmissionHandler) submit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	}

	var req service.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), user.ID, chi.URLParam(r, "problemId"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, submission)
}

// run returns the raw per-case verdicts: an array in visible-case mode, a
// single verdict object when a custom stdin was supplied.
func (h *SubmissionHandler) run(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	}

	var req service.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.submissionService.Run(r.Context(), user.ID, chi.URLParam(r, "problemId"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	if result.Custom && len(result.Verdicts) == 1 {
		common.RespondWithJSON(w, http.StatusOK, result.Verdicts[0])
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result.Verdicts)
}

func (h *SubmissionHandler) history(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	}

	submissions, err := h.submissionService.History(r.Context(), user.ID, chi.URLParam(r, "problemId"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submissions)
}
