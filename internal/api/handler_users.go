package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"avencia-pm/internal/domain"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.tokens == nil {
		h.writeError(w, r, domain.ErrAccessDenied("token issuing is disabled"))
		return
	}

	u, err := h.users.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeLogin(w, r, http.StatusOK, u)
}

// register creates a member account and logs it in.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if !h.allowRegistration {
		h.writeError(w, r, domain.ErrAccessDenied("self-registration is disabled"))
		return
	}
	var body createUserBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.tokens == nil {
		h.writeError(w, r, domain.ErrAccessDenied("token issuing is disabled"))
		return
	}

	u, err := h.users.Register(r.Context(), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeLogin(w, r, http.StatusCreated, u)
}

func (h *Handler) writeLogin(w http.ResponseWriter, r *http.Request, status int, u *domain.User) {
	token, err := h.tokens.Issue(u.ID, u.Email, string(u.Role), h.tokenTTL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, status, LoginResponse{
		Token:     token,
		ExpiresAt: h.now().Add(h.tokenTTL).UTC(),
		User:      userToAPI(*u),
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		h.writeError(w, r, domain.ErrAccessDenied("no authenticated user"))
		return
	}
	u, err := h.users.Get(r.Context(), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userToAPI(*u))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r, domain.UserFilterKinds, h.maxLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.users.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writePage(w, page, userToAPI)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.Create(r.Context(), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, userToAPI(*u))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userToAPI(*u))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var body updateUserBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), body.toDomain())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userToAPI(*u))
}

func (h *Handler) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	var body userStatusBody
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.UpdateStatus(r.Context(), chi.URLParam(r, "id"), domain.UserStatus(body.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userToAPI(*u))
}

func (h *Handler) deactivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Deactivate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, userToAPI(*u))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
