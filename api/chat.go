package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/DanyoungYoo/my-chatbot/internal/log"
	"github.com/DanyoungYoo/my-chatbot/internal/rag"
)

// User-facing error messages. The frontend renders these verbatim, so they
// stay in Korean regardless of server locale.
const (
	errMsgNoUserMessage = "사용자 메시지를 찾을 수 없습니다."
	errMsgModelNotReady = "AI 모델이 아직 준비되지 않았습니다."
	errMsgGeneration    = "답변을 생성하는 데 실패했습니다."
)

// maxRequestBody limits chat request bodies to 1MB.
const maxRequestBody = 1024 * 1024

// ChatMessage is a single conversation turn sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the POST /api/chat request body.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// Answerer produces grounded answers to user questions.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
	Ready() bool
}

// chatHandler serves POST /api/chat.
type chatHandler struct {
	engine Answerer
	logger log.Logger
}

// send answers the last user message in the conversation.
// The answer is returned as plain text; errors are returned as {"error": ...}.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errMsgNoUserMessage)
		return
	}

	question := lastUserContent(req.Messages)
	if question == "" {
		writeError(w, http.StatusBadRequest, errMsgNoUserMessage)
		return
	}

	answer, err := h.engine.Answer(r.Context(), question)
	if err != nil {
		h.logger.Error("chat request failed",
			"error", err,
			"request_id", r.Header.Get(requestIDHeader),
		)
		switch {
		case errors.Is(err, rag.ErrNotReady):
			writeError(w, http.StatusInternalServerError, errMsgModelNotReady)
		case errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, errMsgGeneration)
		default:
			writeError(w, http.StatusInternalServerError, errMsgGeneration)
		}
		return
	}

	writeText(w, answer)
}

// lastUserContent returns the trimmed content of the final message, or ""
// when the conversation is empty or the final message has no text.
func lastUserContent(messages []ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return strings.TrimSpace(messages[len(messages)-1].Content)
}
