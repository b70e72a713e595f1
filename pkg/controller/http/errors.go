package http

import (
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/utils/apperr"
)

// classifyError maps an error to its HTTP status and response label
func classifyError(err error) (int, model.ErrorLabel) {
	switch {
	case model.IsValidation(err):
		return http.StatusBadRequest, model.LabelOf(err, model.LabelInvalidRequest)
	case model.IsForbidden(err):
		return http.StatusForbidden, model.LabelOf(err, model.LabelMissingPermission)
	case model.IsNotFound(err):
		return http.StatusNotFound, model.LabelOf(err, model.LabelGuildNotFound)
	case model.IsAuthentication(err):
		return http.StatusInternalServerError, model.LabelAuthentication
	default:
		return http.StatusInternalServerError, model.LabelInternal
	}
}

// writeError writes an error response. Client errors carry the innermost
// message; internal errors surface the whole chain.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, label := classifyError(err)

	detail := err.Error()
	if status < http.StatusInternalServerError {
		detail = model.RootCause(err).Error()
		ctxlog.From(r.Context()).Info("Request rejected",
			"status", status,
			"error_label", label,
			"error", err,
		)
	} else {
		apperr.Handle(r.Context(), err)
	}

	writeJSON(w, r, status, &model.ErrorResponse{
		Success: false,
		Error:   string(label),
		Detail:  detail,
	})
}
