package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/vines-backend/internal/service"
)

// FriendHandler serves /api/friends.
type FriendHandler struct {
	friends *service.FriendService
	logger  *slog.Logger
}

func NewFriendHandler(friends *service.FriendService, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{friends: friends, logger: logger}
}

type sendRequestBody struct {
	ToUserID string `json:"toUserId" validate:"required,max=128"`
}

// RemovedResponse reports how many friendship rows a removal deleted.
type RemovedResponse struct {
	Removed int64 `json:"removed"`
}

// HandleSendRequest sends a friend request.
//
// HTTP: POST /api/friends/requests
// REQUEST BODY: {"toUserId": "<user id>"}
// RESPONSE: 201 with the pending request and the receiver's profile,
// 409 if a request already exists, 400 for a self request.
func (h *FriendHandler) HandleSendRequest(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var body sendRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}

	req, err := h.friends.Send(r.Context(), me, body.ToUserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// HandleListRequests lists pending requests.
//
// HTTP: GET /api/friends/requests?type=incoming|outgoing|all
func (h *FriendHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	reqs, err := h.friends.ListRequests(r.Context(), me, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// HandleAccept accepts the request {userId} sent to the caller.
//
// HTTP: POST /api/friends/requests/{userId}/accept
// RESPONSE: 200 {"ok":true} | 404 not_found | 409 not_pending
func (h *FriendHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.friends.Accept(r.Context(), me, chi.URLParam(r, "userId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleDecline rejects the request {userId} sent to the caller.
//
// HTTP: POST /api/friends/requests/{userId}/decline
func (h *FriendHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.friends.Decline(r.Context(), me, chi.URLParam(r, "userId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleCancel withdraws the caller's request to {userId}.
//
// HTTP: DELETE /api/friends/requests/{userId}
func (h *FriendHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.friends.Cancel(r.Context(), me, chi.URLParam(r, "userId")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OKResponse{OK: true})
}

// HandleListFriends lists the caller's accepted friends.
//
// HTTP: GET /api/friends
func (h *FriendHandler) HandleListFriends(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	friends, err := h.friends.ListFriends(r.Context(), me)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// HandleStatus reports the state of the edge from the caller to userId.
//
// HTTP: GET /api/friends/{userId}/status
func (h *FriendHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	st, err := h.friends.Status(r.Context(), me, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleRemove unfriends {userId}. Always 200; the body says how many rows
// were removed, 0 when there was nothing to remove.
//
// HTTP: DELETE /api/friends/{userId}
func (h *FriendHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	me, err := principal(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	n, err := h.friends.Remove(r.Context(), me, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: n})
}
