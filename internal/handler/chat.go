package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// ChatReplier answers customer chat messages.
type ChatReplier interface {
	Reply(ctx context.Context, email, message string) (string, error)
}

type chatRequest struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func ChatHandler(chat ChatReplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			http.Error(w, "message is required", http.StatusBadRequest)
			return
		}

		reply, err := chat.Reply(r.Context(), req.Email, req.Message)
		if err != nil {
			slog.Error("chat reply failed", "error", err)
			http.Error(w, "chatbot backend error", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{Reply: reply})
	}
}
