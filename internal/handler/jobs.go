package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/tenancy-engine/internal/jobs"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

type JobHandler struct {
	runner *jobs.Runner
}

func NewJobHandler(runner *jobs.Runner) *JobHandler {
	return &JobHandler{runner: runner}
}

// RunJob runs the named batch job synchronously and returns its counters.
func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, result)
}

// ListJobs returns the registered job names.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.runner.Names())
}
