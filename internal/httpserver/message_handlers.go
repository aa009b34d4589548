package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

type streamMessageRequest struct {
	StreamID    string         `json:"stream_id"`
	Content     string         `json:"content"`
	Type        string         `json:"type"`
	Metadata    map[string]any `json:"metadata"`
	Attachments map[string]any `json:"attachments"`
}

// POST /messages — append to a stream's public chat.
func handleSendStreamMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req streamMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		msgType := domain.MessageType(req.Type)
		if req.Type == "" {
			msgType = domain.TypeText
		}

		msg, err := msgSvc.Send(r.Context(), service.SendInput{
			Target:      domain.StreamTarget(req.StreamID),
			AuthorID:    currentUser.ID,
			Content:     req.Content,
			Type:        msgType,
			Metadata:    req.Metadata,
			Attachments: req.Attachments,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	}
}

// GET /messages/stream/{streamID} — paginated stream chat retrieval.
func handleListStreamMessages(querySvc *service.QueryService, defaultLimit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		streamID := chi.URLParam(r, "streamID")

		in, err := parseMessageListInput(r, defaultLimit)
		if err != nil {
			writeError(w, err)
			return
		}

		items, pagination, err := querySvc.ListMessages(r.Context(), domain.StreamTarget(streamID), in)
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

type messageEditRequest struct {
	Content string `json:"content"`
}

// PATCH /messages/{messageID} — edit a message.
func handleEditMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}
		var req messageEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		msg, err := msgSvc.Edit(r.Context(), msgID, currentUser.ID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, msg)
	}
}

// DELETE /messages/{messageID} — soft-delete a message.
func handleDeleteMessage(msgSvc *service.MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		msgID, err := strconv.ParseInt(chi.URLParam(r, "messageID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
			return
		}

		// Moderator deletion of others' messages waits on an external
		// authorization collaborator; callers get author-only semantics.
		if err := msgSvc.Delete(r.Context(), msgID, currentUser.ID, false); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
