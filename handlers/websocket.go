package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"

	"accident-severity-api/models"
	"accident-severity-api/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type StreamHandler struct {
	predictions *services.PredictionService
	conns       *services.ConnectionManager
	logger      *slog.Logger
}

func NewStreamHandler(predictions *services.PredictionService, conns *services.ConnectionManager, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{predictions: predictions, conns: conns, logger: logger.With("component", "ws")}
}

// Predictions upgrades to a websocket and answers every JSON request frame
// with a prediction or an error message. Model updates reach the client
// through the connection manager.
func (h *StreamHandler) Predictions(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	id := h.conns.Connect(conn)
	defer h.conns.Disconnect(id)

	ctx := services.WithSource(c.Request.Context(), services.SourceWebSocket)
	ctx = services.WithRequestID(ctx, id)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", "connection_id", id, "error", err)
			}
			return
		}

		var req models.AccidentRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			h.sendError(id, "invalid JSON: "+err.Error())
			continue
		}
		if err := binding.Validator.ValidateStruct(&req); err != nil {
			h.sendError(id, err.Error())
			continue
		}

		res, err := h.predictions.Predict(ctx, req)
		if err != nil {
			h.sendError(id, err.Error())
			continue
		}
		if err := h.conns.Send(id, services.Message{Type: services.MessagePrediction, Data: res}); err != nil {
			return
		}
	}
}

func (h *StreamHandler) sendError(id, msg string) {
	h.conns.Send(id, services.Message{Type: services.MessageError, Message: msg})
}

func (h *StreamHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.conns.Stats())
}
