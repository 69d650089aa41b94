package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/lingua-backend/internal/model"
	"github.com/stemsi/lingua-backend/internal/response"
	"github.com/stemsi/lingua-backend/internal/service"
	ws "github.com/stemsi/lingua-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the real-time answer stream of a submission.
type WSHandler struct {
	evaluationService *service.EvaluationService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(evaluationService *service.EvaluationService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		evaluationService: evaluationService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// SubmissionStream godoc
// WS /ws/v1/submissions/:id/stream
// Upgrades to WebSocket for autosave and in-memory grading on submit.
func (h *WSHandler) SubmissionStream(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.evaluationService.OpenSubmission(c.Request.Context(), submissionID)
	if err != nil {
		failFromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("submission_id", sub.ID.String()).
		Str("task_id", sub.TaskID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, sub, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(conn, wsLog, sub) {
				_ = ws.WriteClose(conn, "submission closed")
				return
			}
		case ws.ActionPing:
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleAutosave buffers a single answer in Redis and queues it for persistence.
func (h *WSHandler) handleAutosave(conn *websocket.Conn, wsLog zerolog.Logger, sub *model.Submission, msg *ws.RequestPayload) {
	if msg.QID == "" || len(msg.Answer) == 0 {
		_ = ws.WriteError(conn, "q_id and ans are required")
		return
	}

	// Validate QID is a well-formed UUID to prevent Redis key injection.
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		_ = ws.WriteError(conn, "invalid q_id format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.evaluationService.Autosave(ctx, sub, questionID, msg.Answer); err != nil {
		if errors.Is(err, service.ErrSubmissionClosed) {
			_ = ws.WriteError(conn, "submission already submitted")
			return
		}
		wsLog.Error().Err(err).Msg("Autosave error")
		_ = ws.WriteError(conn, "save failed")
		return
	}

	_ = ws.WriteTyped(conn, ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved", QID: msg.QID})
}

// handleSubmit grades the submission in RAM and queues the score for
// persistence. It reports whether the stream is finished.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, sub *model.Submission) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sum, err := h.evaluationService.SubmitBuffered(ctx, sub)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionClosed) {
			_ = ws.WriteError(conn, "submission already submitted")
			return true
		}
		wsLog.Error().Err(err).Msg("Grading error")
		_ = ws.WriteError(conn, "grading failed")
		return false
	}

	wsLog.Info().
		Float64("score", sum.TotalScore).
		Float64("max_score", sum.MaxScore).
		Int("pending_review", sum.Pending).
		Msg("Submission graded")

	_ = ws.WriteTyped(conn, ws.GradedResponse{Event: ws.EventGraded, Status: "completed", Summary: *sum})
	return true
}
