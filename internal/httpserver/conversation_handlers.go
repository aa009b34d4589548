package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamchat/internal/service"
)

type markReadRequest struct {
	LastReadMessageID *int64 `json:"last_read_message_id"`
}

// POST /conversations/{userID}/read — mark the direct conversation with the
// given counterpart read. An empty body (or no cursor) means mark-all-read.
func handleMarkConversationRead(convSvc *service.ConversationService, readSvc *service.ReadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		otherID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
			return
		}

		var req markReadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		conv, err := convSvc.ResolveOrCreateDirect(r.Context(), currentUser.ID, otherID)
		if err != nil {
			writeError(w, err)
			return
		}

		unread, err := readSvc.MarkRead(r.Context(), conv.ID, currentUser.ID, req.LastReadMessageID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unread_count": unread})
	}
}

// GET /conversations — list the caller's conversations, most recently active
// first, with last-message snapshots and unread counts.
func handleListConversations(querySvc *service.QueryService, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		page, limit, err := parsePageParams(r, defaultLimit)
		if err != nil {
			writeError(w, err)
			return
		}

		items, pagination, err := querySvc.ListConversations(r.Context(), currentUser.ID, page, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":      items,
			"pagination": pagination,
		})
	}
}
