package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"avencia-pm/internal/domain"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, domain.ProjectFilterKinds, h.maxLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.projects.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePage(w, page, projectSummaryToAPI)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.projects.Create(r.Context(), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, projectToAPI(*p))
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projectSummaryToAPI(*p))
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var body updateProjectBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.projects.Update(r.Context(), chi.URLParam(r, "id"), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projectToAPI(*p))
}

func (h *Handler) archiveProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Archive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projectToAPI(*p))
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projectStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.projects.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, projectStatsToAPI(*stats))
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.projects.Members(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, mapSlice(members, memberToAPI))
}

func (h *Handler) addMember(w http.ResponseWriter, r *http.Request) {
	var body addMemberBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.projects.AddMember(r.Context(), chi.URLParam(r, "id"), domain.AddMemberRequest{
		UserID: body.UserID,
		Role:   domain.MemberRole(body.Role),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, memberToAPI(*m))
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.projects.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
