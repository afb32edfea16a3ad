package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tutela/internal/domain"
	"tutela/internal/transport/http/shared"
	dErrors "tutela/pkg/domain-errors"
)

func (h *handler) registerConsent(w http.ResponseWriter, r *http.Request) {
	var req consentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	consent := domain.Consent{
		DataSubjectID:  req.DataSubjectID,
		Purpose:        req.Purpose,
		DataCategories: req.DataCategories,
		Given:          req.Given,
		Version:        req.Version,
	}
	if req.ConsentDate != nil {
		consent.ConsentDate = *req.ConsentDate
	}
	if req.Method != "" {
		method, err := domain.ParseConsentMethod(req.Method)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		consent.Method = method
	}

	id, err := h.deps.Consents.Register(r.Context(), consent)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) withdrawConsent(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Consents.Withdraw(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getConsent(w http.ResponseWriter, r *http.Request) {
	consent, err := h.deps.Consents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toConsentResponse(consent))
}

func (h *handler) listConsentsBySubject(w http.ResponseWriter, r *http.Request) {
	consents, err := h.deps.Consents.FindBySubject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]consentResponse, 0, len(consents))
	for i := range consents {
		out = append(out, toConsentResponse(&consents[i]))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
