package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"streamchat/internal/domain"
	"streamchat/internal/service"
)

type directMessageRequest struct {
	Content     string         `json:"content"`
	Type        string         `json:"type"`
	Metadata    map[string]any `json:"metadata"`
	Attachments map[string]any `json:"attachments"`
}

// POST /direct-messages/{userID} — send a direct message, implicitly
// resolving or creating the conversation with the counterpart.
func handleSendDirectMessage(convSvc *service.ConversationService, msgSvc *service.MessageService) http.HandlerFunc {
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
		var req directMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		msgType := domain.MessageType(req.Type)
		if req.Type == "" {
			msgType = domain.TypeText
		}

		conv, err := convSvc.ResolveOrCreateDirect(r.Context(), currentUser.ID, otherID)
		if err != nil {
			writeError(w, err)
			return
		}

		msg, err := msgSvc.Send(r.Context(), service.SendInput{
			Target:      domain.ConversationTarget(conv.ID),
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

// GET /direct-messages/{userID} — paginated direct-message retrieval with
// the given counterpart.
func handleListDirectMessages(convSvc *service.ConversationService, querySvc *service.QueryService, defaultLimit int) http.HandlerFunc {
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

		in, err := parseMessageListInput(r, defaultLimit)
		if err != nil {
			writeError(w, err)
			return
		}

		// Resolution is idempotent, so listing before any message was sent
		// simply yields the empty conversation.
		conv, err := convSvc.ResolveOrCreateDirect(r.Context(), currentUser.ID, otherID)
		if err != nil {
			writeError(w, err)
			return
		}

		items, pagination, err := querySvc.ListMessages(r.Context(), domain.ConversationTarget(conv.ID), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"conversation_id": conv.ID,
			"items":           items,
			"pagination":      pagination,
		})
	}
}
