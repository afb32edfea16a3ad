package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tutela/internal/audit"
	"tutela/internal/transport/http/shared"
	dErrors "tutela/pkg/domain-errors"
)

var errUnknownRegime = dErrors.New(dErrors.CodeValidation, "unknown regime")

type checkRequest struct {
	ProcessingID string `json:"processingId"`
	Regime       string `json:"regime"`
}

func (h *handler) checkProcessing(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rs, err := ruleSetFromRequest(req.Regime)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	activity, err := h.deps.Processings.Get(r.Context(), req.ProcessingID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	check, err := h.deps.Compliance.CheckProcessingCompliance(r.Context(), *activity, rs)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCheckResponse(check))
}

func (h *handler) checkSubjectRights(w http.ResponseWriter, r *http.Request) {
	rs, err := ruleSetFromRequest(r.URL.Query().Get("regime"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	check, err := h.deps.Compliance.CheckDataSubjectRights(r.Context(), chi.URLParam(r, "id"), rs)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toCheckResponse(check))
}

func (h *handler) queryAudit(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{SubjectID: r.URL.Query().Get("subject_id")}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid from date"))
			return
		}
		filter.From = &from
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid to date"))
			return
		}
		filter.To = &to
	}

	events, err := h.deps.Audit.Query(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]auditEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toAuditEventResponse(event))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
