package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"avencia-pm/internal/domain"
)

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, domain.TaskFilterKinds, h.maxLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.tasks.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePage(w, page, taskToAPI)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var body createTaskBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.tasks.Create(r.Context(), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, taskToAPI(*t))
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.tasks.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, taskToAPI(*t))
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var body updateTaskBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.tasks.Update(r.Context(), chi.URLParam(r, "id"), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, taskToAPI(*t))
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setTaskTags(w http.ResponseWriter, r *http.Request) {
	var body tagsBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	tags, err := h.tasks.SetTags(r.Context(), chi.URLParam(r, "id"), body.Tags)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeData(w, http.StatusOK, tags)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.tasks.Comments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(comments, commentToAPI))
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var body commentBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.tasks.AddComment(r.Context(), chi.URLParam(r, "id"), domain.CreateCommentRequest{Content: body.Content})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, commentToAPI(*c))
}

// upcomingTasks lists open tasks due within ?days. ?assignee=me resolves to
// the caller.
func (h *Handler) upcomingTasks(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var assignee *string
	if a := r.URL.Query().Get("assignee"); a != "" {
		if a == "me" {
			p, ok := principal(r)
			if !ok {
				h.writeError(w, r, domain.ErrValidation("assignee=me requires an authenticated user"))
				return
			}
			a = p.UserID
		}
		assignee = &a
	}

	tasks, err := h.tasks.Upcoming(r.Context(), days, assignee)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(tasks, taskToAPI))
}

func (h *Handler) taskMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.tasks.Metrics(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, taskMetricsToAPI(*m))
}
