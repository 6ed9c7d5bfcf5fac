package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

type ProgramHandler struct {
	builder   *service.MaintenanceScheduleBuilder
	validator *validator.Validate
}

func NewProgramHandler(builder *service.MaintenanceScheduleBuilder) *ProgramHandler {
	return &ProgramHandler{
		builder:   builder,
		validator: newValidator(),
	}
}

// ApplySchedule stores a new rule on the program and replaces its slots.
func (h *ProgramHandler) ApplySchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.MaintenanceScheduleRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.builder.ApplySchedule(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, resp)
}

// Regenerate re-expands the stored pattern of the program.
func (h *ProgramHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.builder.RegenerateSlots(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, resp)
}

// Preview expands a rule without storing it.
func (h *ProgramHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req domain.MaintenanceScheduleRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	slots, err := h.builder.Preview(&req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, slots)
}
