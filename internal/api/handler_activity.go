package api

import (
	"net/http"

	"avencia-pm/internal/domain"
)

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, domain.ActivityFilterKinds, h.maxLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.activity.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePage(w, page, activityToAPI)
}
