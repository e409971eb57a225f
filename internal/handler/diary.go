package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/apperror"
	"github.com/sakif/vines-backend/internal/service"
)

// DiaryHandler serves /api/diary.
type DiaryHandler struct {
	diary  *service.DiaryService
	logger *slog.Logger
}

func NewDiaryHandler(diary *service.DiaryService, logger *slog.Logger) *DiaryHandler {
	return &DiaryHandler{diary: diary, logger: logger}
}

type diaryBody struct {
	Content  *string `json:"content" validate:"omitempty,max=5000"`
	Mood     *string `json:"mood" validate:"omitempty,max=32"`
	MediaURL *string `json:"media_url" validate:"omitempty,clearable_url,max=2048"`
}

type reactionBody struct {
	Emoji string `json:"emoji" validate:"required,max=16"`
}

type commentBody struct {
	Body  *string `json:"body" validate:"omitempty,max=1000"`
	Emoji *string `json:"emoji" validate:"omitempty,max=16"`
}

// pageQuery reads ?limit= and ?before=.
func pageQuery(r *http.Request) (service.PageInput, error) {
	q := r.URL.Query()
	in := service.PageInput{Before: q.Get("before")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, apperror.ValidationFailed("limit", "limit must be a whole number")
		}
		in.Limit = n
	}
	return in, nil
}

// HandleCreate posts a diary entry for the caller.
//
// HTTP: POST /api/diary
// REQUEST BODY: {"content": "...", "mood": "calm", "media_url": "https://..."}
// RESPONSE: 201 with the entry. At least one field must be non-blank.
func (h *DiaryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body diaryBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	e, err := h.diary.Create(r.Context(), me, service.DiaryInput{
		Content:  body.Content,
		Mood:     body.Mood,
		MediaURL: body.MediaURL,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleMine lists the caller's entries, newest first.
//
// HTTP: GET /api/diary/me?limit=&before=
func (h *DiaryHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := pageQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.diary.Mine(r.Context(), me, page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleByUser lists another user's entries.
//
// HTTP: GET /api/diary/user/{userId}?limit=&before=
func (h *DiaryHandler) HandleByUser(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := pageQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.diary.ByUser(r.Context(), me, chi.URLParam(r, "userId"), page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleFriends is the feed of the caller's accepted friends.
//
// HTTP: GET /api/diary/friends?limit=&before=
func (h *DiaryHandler) HandleFriends(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := pageQuery(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.diary.Friends(r.Context(), me, page)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleDelete removes one of the caller's entries along with its reactions
// and comments.
//
// HTTP: DELETE /api/diary/{entryId}
func (h *DiaryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.diary.Delete(r.Context(), me, chi.URLParam(r, "entryId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleReact adds the caller's emoji to an entry.
//
// HTTP: POST /api/diary/{entryId}/reactions
// REQUEST BODY: {"emoji": "🌻"}
// RESPONSE: 201 when added, 200 when the caller had already left it.
func (h *DiaryHandler) HandleReact(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body reactionBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	reaction, created, err := h.diary.React(r.Context(), me, chi.URLParam(r, "entryId"), body.Emoji)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, reaction)
}

// HandleUnreact takes the emoji from ?emoji= or from a JSON body.
//
// HTTP: DELETE /api/diary/{entryId}/reactions
func (h *DiaryHandler) HandleUnreact(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	emoji := r.URL.Query().Get("emoji")
	if emoji == "" {
		var body reactionBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, h.logger, err)
			return
		}
		emoji = body.Emoji
	}

	if err := h.diary.Unreact(r.Context(), me, chi.URLParam(r, "entryId"), emoji); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleComment adds the caller's comment to an entry.
//
// HTTP: POST /api/diary/{entryId}/comments
// REQUEST BODY: {"body": "...", "emoji": "👍"}
func (h *DiaryHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body commentBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	c, err := h.diary.Comment(r.Context(), me, chi.URLParam(r, "entryId"), body.Body, body.Emoji)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleComments lists the comments on an entry, oldest first.
//
// HTTP: GET /api/diary/{entryId}/comments
func (h *DiaryHandler) HandleComments(w http.ResponseWriter, r *http.Request) {
	if _, err := principal(r); err != nil {
		writeError(w, h.logger, err)
		return
	}

	comments, err := h.diary.Comments(r.Context(), chi.URLParam(r, "entryId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleDeleteComment removes one of the caller's comments.
//
// HTTP: DELETE /api/diary/{entryId}/comments/{commentId}
func (h *DiaryHandler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	err = h.diary.DeleteComment(r.Context(), me, chi.URLParam(r, "entryId"), chi.URLParam(r, "commentId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}
