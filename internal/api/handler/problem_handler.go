package handler

import (
	"encoding/json"
	"net/http"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"

	"github.com/go-chi/chi/v5"
)

type ProblemHandler struct {
	problemService *service.ProblemService
	sessionService *service.SessionService
}

func NewProblemHandler(ps *service.ProblemService, ss *service.SessionService) *ProblemHandler {
	return &ProblemHandler{problemService: ps, sessionService: ss}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.AdminOnly(h.sessionService))
		admin.Post("/create", h.create)
		admin.Put("/update/{id}", h.update)
		admin.Delete("/delete/{id}", h.delete)
	})

	r.Group(func(user chi.Router) {
		user.Use(middleware.Authenticator(h.sessionService))
		user.Get("/getAllProblem", h.listAll)
		user.Get("/problemById/{id}", h.getByID)
		user.Get("/problemSolvedByUser", h.solvedByUser)
	})
}

func (h *ProblemHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	}

	var req service.ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	problem, err := h.problemService.Create(r.Context(), user.ID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Problem created successfully",
		"problem": problem,
	})
}

func (h *ProblemHandler) update(w http.ResponseWriter, r *http.Request) {
	var req service.ProblemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	problem, err := h.problemService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.problemService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted"})
}

func (h *ProblemHandler) getByID(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) listAll(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problemService.ListAll(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) solvedByUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return
	}

	solved, err := h.problemService.ListSolvedByUser(r.Context(), user.ID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, solved)
}
