package ws

import (
	"context"
	"encoding/json"
	"time"

	"formbox/internal/model"
	"formbox/internal/service"

	"go.uber.org/zap"
)

// CommandHandler handles WebSocket commands from live renderers. Answers
// arrive here message by message; each command gets a response or error
// correlated by the caller-supplied message id.
type CommandHandler struct {
	sessionSvc *service.SessionService
	log        *zap.Logger
}

func NewCommandHandler(sessionSvc *service.SessionService, log *zap.Logger) *CommandHandler {
	return &CommandHandler{
		sessionSvc: sessionSvc,
		log:        log,
	}
}

// HandleCommand processes a WebSocket command
func (h *CommandHandler) HandleCommand(ctx context.Context, conn *Conn, cmd map[string]interface{}) {
	op, _ := cmd["op"].(string)
	data, _ := cmd["data"].(map[string]interface{})
	msgID, _ := cmd["id"].(string)

	switch op {
	case "createSession":
		h.handleCreateSession(ctx, conn, msgID, data)
	case "getSession":
		h.handleGetSession(ctx, conn, msgID, data)
	case "answer":
		h.handleAnswer(ctx, conn, msgID, data)
	case "next":
		h.handleNext(ctx, conn, msgID, data)
	case "previous":
		h.handlePrevious(ctx, conn, msgID, data)
	case "cancelSession":
		h.handleCancelSession(ctx, conn, msgID, data)
	case "getSubmission":
		h.handleGetSubmission(ctx, conn, msgID, data)
	default:
		h.sendError(conn, msgID, "unknown_command", "Unknown command: "+op)
	}
}

func (h *CommandHandler) handleCreateSession(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	formID, _ := data["formId"].(string)
	if formID == "" {
		h.sendError(conn, msgID, "invalid_input", "formId required")
		return
	}

	input := service.CreateSessionInput{
		FormID:    formID,
		CreatedBy: conn.clientID,
	}
	if ttlSeconds, ok := data["ttlSeconds"].(float64); ok && ttlSeconds > 0 {
		input.TTL = time.Duration(ttlSeconds) * time.Second
	}

	view, err := h.sessionSvc.CreateSession(ctx, input)
	if err != nil {
		h.sendError(conn, msgID, "create_failed", err.Error())
		return
	}

	// Auto-subscribe the creator so it gets session events immediately.
	conn.hub.Subscribe(conn, "session:"+view.ID)

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handleGetSession(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	if sessionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId required")
		return
	}

	view, err := h.sessionSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendError(conn, msgID, "not_found", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handleAnswer(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	questionID, _ := data["questionId"].(string)
	if sessionID == "" || questionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId and questionId required")
		return
	}

	answer, err := model.AnswerFrom(data["value"])
	if err != nil {
		h.sendError(conn, msgID, "invalid_input", err.Error())
		return
	}

	view, err := h.sessionSvc.UpdateAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		h.sendError(conn, msgID, "answer_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handleNext(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	if sessionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId required")
		return
	}

	view, err := h.sessionSvc.Next(ctx, sessionID)
	if err != nil {
		h.sendError(conn, msgID, "next_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handlePrevious(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	if sessionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId required")
		return
	}

	view, err := h.sessionSvc.Previous(ctx, sessionID)
	if err != nil {
		h.sendError(conn, msgID, "previous_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handleCancelSession(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	if sessionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId required")
		return
	}

	view, err := h.sessionSvc.CancelSession(ctx, sessionID)
	if err != nil {
		h.sendError(conn, msgID, "cancel_failed", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": view,
	})
}

func (h *CommandHandler) handleGetSubmission(ctx context.Context, conn *Conn, msgID string, data map[string]interface{}) {
	sessionID, _ := data["sessionId"].(string)
	if sessionID == "" {
		h.sendError(conn, msgID, "invalid_input", "sessionId required")
		return
	}

	sub, err := h.sessionSvc.GetSubmission(ctx, sessionID)
	if err != nil {
		h.sendError(conn, msgID, "not_found", err.Error())
		return
	}

	h.sendResponse(conn, msgID, map[string]interface{}{
		"type": "response",
		"data": sub,
	})
}

func (h *CommandHandler) sendResponse(conn *Conn, msgID string, response map[string]interface{}) {
	if msgID != "" {
		response["id"] = msgID
	}
	msg, _ := json.Marshal(response)
	select {
	case conn.send <- msg:
	default:
		h.log.Warn("Failed to send response, channel full")
	}
}

func (h *CommandHandler) sendError(conn *Conn, msgID, code, message string) {
	err := map[string]interface{}{
		"type":    "error",
		"code":    code,
		"message": message,
	}
	if msgID != "" {
		err["id"] = msgID
	}
	msg, _ := json.Marshal(err)
	select {
	case conn.send <- msg:
	default:
		h.log.Warn("Failed to send error, channel full")
	}
}
