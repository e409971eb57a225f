package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/model"
	"github.com/sakif/vines-backend/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// updateMeBody uses pointers so an absent field can be told apart from an
// empty one.
type updateMeBody struct {
	Username    *string `json:"username" validate:"omitempty,max=50"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	IconURL     *string `json:"icon_url" validate:"omitempty,max=500,clearable_url"`
	Email       *string `json:"email" validate:"omitempty,max=254,clearable_email"`
	Birthday    *string `json:"birthday"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	u, err := h.users.Me(r.Context(), me)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleUpdateMe applies a partial profile update.
//
// HTTP: PATCH /api/users/me
// REQUEST BODY: any subset of username, display_name, icon_url, email,
// birthday, phone.
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body updateMeBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	u, err := h.users.UpdateMe(r.Context(), me, model.UserPatch{
		Username:    body.Username,
		DisplayName: body.DisplayName,
		IconURL:     body.IconURL,
		Email:       body.Email,
		Birthday:    body.Birthday,
		Phone:       body.Phone,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleSearch finds users by username.
//
// HTTP: GET /api/users/search?username=
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.users.Search(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGetUser returns a user's profile by ID.
//
// HTTP: GET /api/users/{userId}
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
