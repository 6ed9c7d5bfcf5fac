package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

type LeaseHandler struct {
	service   *service.LeaseService
	validator *validator.Validate
}

func NewLeaseHandler(service *service.LeaseService) *LeaseHandler {
	return &LeaseHandler{
		service:   service,
		validator: newValidator(),
	}
}

func (h *LeaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeaseRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	lease, err := h.service.CreateLease(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, lease)
}

func (h *LeaseHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.EditLeaseRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	lease, err := h.service.EditLease(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, lease)
}

func (h *LeaseHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApproveLease)
}

func (h *LeaseHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelLease)
}

func (h *LeaseHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.TerminateLease)
}

func (h *LeaseHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id uuid.UUID, comment string) (*domain.Lease, error),
) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.TransitionRequest
	if err := decode(r, h.validator, &req, true); err != nil {
		response.FromError(w, r, err)
		return
	}

	lease, err := apply(r.Context(), id, req.Comment)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, lease)
}

func (h *LeaseHandler) GetExpiry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	expiry, err := h.service.GetExpiry(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, expiry)
}

func (h *LeaseHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	history, err := h.service.GetHistory(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, history)
}
