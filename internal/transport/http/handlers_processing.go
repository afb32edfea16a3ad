package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutela/internal/domain"
	"tutela/internal/transport/http/shared"
	dErrors "tutela/pkg/domain-errors"
)

func (h *handler) registerProcessing(w http.ResponseWriter, r *http.Request) {
	var req processingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	// The raw basis is stored even when out of enum; the engine reports an
	// invalid basis as a violation rather than the API rejecting it.
	activity := domain.ProcessingActivity{
		Purpose:             req.Purpose,
		LegalBasis:          domain.LegalBasis(req.LegalBasis),
		DataCategories:      req.DataCategories,
		DataSubjects:        req.DataSubjects,
		RetentionPeriod:     req.RetentionPeriod,
		SecurityMeasures:    req.SecurityMeasures,
		ThirdPartySharing:   req.ThirdPartySharing,
		ThirdParties:        req.ThirdParties,
		CrossBorderTransfer: req.CrossBorderTransfer,
		TransferCountries:   req.TransferCountries,
		ProtectionContact:   req.ProtectionContact,
	}

	id, err := h.deps.Processings.Register(r.Context(), activity)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) getProcessing(w http.ResponseWriter, r *http.Request) {
	activity, err := h.deps.Processings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toProcessingResponse(activity))
}

func (h *handler) listProcessing(w http.ResponseWriter, r *http.Request) {
	activities, err := h.deps.Processings.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]processingResponse, 0, len(activities))
	for i := range activities {
		out = append(out, toProcessingResponse(&activities[i]))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *handler) deleteProcessing(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Processings.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) removeProcessingSubject(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Processings.RemoveSubject(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
