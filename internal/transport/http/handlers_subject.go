package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutela/internal/domain"
	"tutela/internal/transport/http/shared"
	dErrors "tutela/pkg/domain-errors"
)

func (h *handler) registerSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	subject := domain.DataSubject{
		Name:                req.Name,
		Email:               req.Email,
		Document:            req.Document,
		Phone:               req.Phone,
		Address:             req.Address,
		BirthDate:           req.BirthDate,
		Nationality:         req.Nationality,
		DataCategories:      req.DataCategories,
		DataRetentionPeriod: req.DataRetentionPeriod,
	}
	if req.ProcessingBasis != "" {
		basis, err := domain.ParseLegalBasis(req.ProcessingBasis)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		subject.ProcessingBasis = basis
	}

	id, err := h.deps.Subjects.Register(r.Context(), subject)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) getSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := h.deps.Subjects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toSubjectResponse(subject))
}

func (h *handler) eraseSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Rights.Erase(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) exportPortability(w http.ResponseWriter, r *http.Request) {
	report, err := h.deps.Rights.ExportPortabilityReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}
