package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/reminder"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

type ReminderHandler struct {
	scheduler *reminder.Scheduler
	validator *validator.Validate
}

func NewReminderHandler(scheduler *reminder.Scheduler) *ReminderHandler {
	return &ReminderHandler{
		scheduler: scheduler,
		validator: newValidator(),
	}
}

func (h *ReminderHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req domain.ScheduleReminderRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	created, err := h.scheduler.Schedule(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, created)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.scheduler.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, resp)
}

func (h *ReminderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.scheduler.Cancel(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.NoContent(w)
}
