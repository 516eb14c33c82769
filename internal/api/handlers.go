package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/the-llm/backend/internal/auth"
	"github.com/the-llm/backend/internal/core"
	"github.com/the-llm/backend/internal/store"
)

type contextKey string

const userIDKey contextKey = "userID"

type APIHandler struct {
	chatService *core.ChatService
	completions core.Completer
	verifier    auth.Verifier
	logger      *zap.Logger
}

func NewAPIHandler(cs *core.ChatService, completions core.Completer, verifier auth.Verifier, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		chatService: cs,
		completions: completions,
		verifier:    verifier,
		logger:      logger,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := h.verifier.Verify(tokenString)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	conversations, err := h.chatService.ListConversations(userID)
	if err != nil {
		h.logger.Error("error fetching conversations", zap.String("userId", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	respondJSON(w, http.StatusOK, conversations)
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)

	var req CreateConversationRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	conversation, err := h.chatService.CreateConversation(userID, req.Title)
	if err != nil {
		h.logger.Error("error creating conversation", zap.String("userId", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"conversationId": conversation.ID,
		"message":        "Conversation created successfully",
	})
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) RenameConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	conversationID := chi.URLParam(r, "conversationID")

	var req RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	err := h.chatService.RenameConversation(conversationID, userID, req.Title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("error updating conversation",
			zap.String("userId", userID), zap.String("conversationId", conversationID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to update conversation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Conversation updated successfully"})
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	conversationID := chi.URLParam(r, "conversationID")

	err := h.chatService.DeleteConversation(conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("error deleting conversation",
			zap.String("userId", userID), zap.String("conversationId", conversationID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	conversationID := chi.URLParam(r, "conversationID")

	messages, err := h.chatService.ListMessages(conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("error fetching messages",
			zap.String("userId", userID), zap.String("conversationId", conversationID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Model   string `json:"model"`
}

func (h *APIHandler) AppendMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(userIDKey).(string)
	conversationID := chi.URLParam(r, "conversationID")

	var req AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "Message content cannot be empty")
		return
	}
	if req.Role != store.RoleUser && req.Role != store.RoleAssistant {
		respondError(w, http.StatusBadRequest, "Role must be either 'user' or 'assistant'")
		return
	}

	_, err := h.chatService.AppendMessage(conversationID, userID, req.Role, req.Content, req.Model)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("error adding message",
			zap.String("userId", userID), zap.String("conversationId", conversationID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to add message")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Message added successfully"})
}

type CompletionRequest struct {
	Message string `json:"message"`
}

// GroqCompletionHandler is a stateless passthrough; it is deliberately not
// behind the auth gate and touches no stored conversation.
func (h *APIHandler) GroqCompletionHandler(w http.ResponseWriter, r *http.Request) {
	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content, err := h.completions.Complete(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("error fetching chat completion", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to get chat completion")
		return
	}

	respondJSON(w, http.StatusOK, content)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
