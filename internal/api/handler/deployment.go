package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/labdeploy/internal/api/request"
	"github.com/edvin/labdeploy/internal/api/response"
	"github.com/edvin/labdeploy/internal/core"
	"github.com/edvin/labdeploy/internal/model"
)

// Error codes returned in the "error" field of failed responses.
const (
	CodeInvalidDifficulty  = "invalid_difficulty"
	CodeInvalidID          = "invalid_id"
	CodeDBInsertFailed     = "db_insert_failed"
	CodeEventPublishFailed = "event_publish_failed"
	CodeDBError            = "db_error"
	CodeNotFound           = "not_found"
)

// DeploymentService is the slice of core.DeploymentService the handler needs.
type DeploymentService interface {
	Submit(ctx context.Context, difficulty string) (string, error)
	ListRecent(ctx context.Context) ([]model.Deployment, error)
	Get(ctx context.Context, id string) (*model.Deployment, error)
}

type Deployment struct {
	svc DeploymentService
}

func NewDeployment(svc DeploymentService) *Deployment {
	return &Deployment{svc: svc}
}

type createDeploymentResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// Create handles POST /api/deploy.
func (h *Deployment) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDeployment
	if err := request.Decode(r, &req); err != nil {
		response.WriteErrorCode(w, http.StatusBadRequest, CodeInvalidDifficulty, err.Error())
		return
	}

	id, err := h.svc.Submit(r.Context(), req.Difficulty)
	if err != nil {
		writeSubmitError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, createDeploymentResponse{OK: true, ID: id})
}

func writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *core.ValidationError
		serr *core.StorageError
		perr *core.PublishError
	)
	switch {
	case errors.As(err, &verr):
		response.WriteErrorCode(w, http.StatusBadRequest, CodeInvalidDifficulty, verr.Error())
	case errors.As(err, &perr):
		zerolog.Ctx(r.Context()).Error().Err(err).Str("deployment_id", perr.DeploymentID).Msg("deployment request not published")
		response.WriteErrorCode(w, http.StatusBadGateway, CodeEventPublishFailed, "deployment request could not be published")
	case errors.As(err, &serr):
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("deployment request not stored")
		response.WriteErrorCode(w, http.StatusInternalServerError, CodeDBInsertFailed, "deployment request could not be stored")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("submit deployment")
		response.WriteErrorCode(w, http.StatusInternalServerError, CodeDBInsertFailed, "deployment request could not be stored")
	}
}

// List handles GET /api/deployments.
func (h *Deployment) List(w http.ResponseWriter, r *http.Request) {
	deployments, err := h.svc.ListRecent(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list deployments")
		response.WriteErrorCode(w, http.StatusInternalServerError, CodeDBError, "could not list deployments")
		return
	}

	response.WriteJSON(w, http.StatusOK, deployments)
}

// Get handles GET /api/deployments/{id}.
func (h *Deployment) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteErrorCode(w, http.StatusBadRequest, CodeInvalidID, err.Error())
		return
	}

	deployment, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if core.IsStorageKind(err, core.KindNotFound) {
			response.WriteErrorCode(w, http.StatusNotFound, CodeNotFound, "deployment not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("deployment_id", id).Msg("get deployment")
		response.WriteErrorCode(w, http.StatusInternalServerError, CodeDBError, "could not load deployment")
		return
	}

	response.WriteJSON(w, http.StatusOK, deployment)
}
