package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/tenancy-engine/internal/domain"
	"github.com/segyhp/tenancy-engine/internal/service"
	"github.com/segyhp/tenancy-engine/pkg/response"
)

type ContractHandler struct {
	service   *service.ContractService
	validator *validator.Validate
}

func NewContractHandler(service *service.ContractService) *ContractHandler {
	return &ContractHandler{
		service:   service,
		validator: newValidator(),
	}
}

func (h *ContractHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContractRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	resp, err := h.service.CreateContract(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, resp)
}

func (h *ContractHandler) Terminate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	contract, err := h.service.TerminateContract(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, contract)
}

func (h *ContractHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, payments)
}

func (h *ContractHandler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	payments, err := h.service.RegenerateSchedule(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, payments)
}

func (h *ContractHandler) RequestRenewal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req domain.RenewalRequest
	if err := decode(r, h.validator, &req, false); err != nil {
		response.FromError(w, r, err)
		return
	}

	renewal, err := h.service.RequestRenewal(r.Context(), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, renewal)
}

func (h *ContractHandler) ApproveRenewal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	renewal, err := h.service.ApproveRenewal(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, renewal)
}
