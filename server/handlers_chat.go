package server

import (
	"net/http"
	"strings"
)

type chatRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type sendRequest struct {
	ChatID  string `json:"chatId" validate:"required,uuid"`
	Content string `json:"content" validate:"required"`
	Sender  string `json:"sender"`
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// HandleChats serves the collection routes: list on GET, create on POST.
func (h *Handlers) HandleChats(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		chats, err := h.deps.Store.FindAll(r.Context())
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chats)
	case http.MethodPost:
		var req chatRequest
		if !h.decodeAndValidate(w, r, &req) {
			return
		}
		chat, err := h.deps.Store.Create(r.Context(), req.FirstName, req.LastName)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, chat)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleChatsDispatcher routes requests under /chats/ to sub-handlers.
func (h *Handlers) HandleChatsDispatcher(w http.ResponseWriter, r *http.Request) {
	// crude routing
	path := strings.TrimPrefix(r.URL.Path, "/chats/")
	parts := strings.Split(path, "/")
	head := parts[0]
	switch {
	case head == "":
		http.NotFound(w, r)
	case head == "send" && len(parts) == 1:
		h.handleSend(w, r)
	case len(parts) == 1:
		h.handleChatByID(w, r, head)
	case len(parts) == 3 && parts[1] == "messages":
		h.handleMessageEdit(w, r, head, parts[2])
	default:
		http.NotFound(w, r)
	}
}

// handleChatByID serves GET, PUT and DELETE on a single chat.
func (h *Handlers) handleChatByID(w http.ResponseWriter, r *http.Request, chatID string) {
	switch r.Method {
	case http.MethodGet:
		chat, err := h.deps.Store.FindByID(r.Context(), chatID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	case http.MethodPut:
		var req chatRequest
		if !h.decodeAndValidate(w, r, &req) {
			return
		}
		chat, err := h.deps.Store.UpdateMetadata(r.Context(), chatID, req.FirstName, req.LastName)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chat)
	case http.MethodDelete:
		if err := h.deps.Store.Delete(r.Context(), chatID); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": chatID})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSend accepts a user message over HTTP. The message goes through the
// responder, so it is persisted and answered by the delayed bot reply exactly
// like a websocket send; the response acknowledges receipt only.
func (h *Handlers) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req sendRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	sender := req.Sender
	if sender == "" {
		sender = h.deps.Cfg.UserSender
	}
	msg, err := h.deps.Responder.HandleUserMessage(r.Context(), req.ChatID, sender, req.Content)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// handleMessageEdit serves PUT /chats/{chatId}/messages/{messageId}.
func (h *Handlers) handleMessageEdit(w http.ResponseWriter, r *http.Request, chatID, messageID string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req editMessageRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	chat, err := h.deps.Store.UpdateMessageContent(r.Context(), chatID, messageID, req.Content)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
