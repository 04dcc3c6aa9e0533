package api

import "net/http"

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Get(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, dashboardToAPI(*d))
}
