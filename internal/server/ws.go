// Package server provides the HTTP server for the mudra gesture inference service.
package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Landmark producers connect from the local frontend
	},
}

// Event type identifiers for messages exchanged over the stream.
const (
	eventAddFrame              = "add_frame"
	eventConnectionEstablished = "connection_established"
	eventBufferStatus          = "buffer_status"
	eventPrediction            = "prediction"
	eventError                 = "error"
)

// clientMessage is an inbound message from a landmark producer.
type clientMessage struct {
	Type      string    `json:"type"`
	Landmarks []float64 `json:"landmarks"`
}

type connectionEstablishedMessage struct {
	Type           string `json:"type"`
	Status         string `json:"status"`
	FramesRequired int    `json:"frames_required"`
	SessionID      string `json:"session_id"`
}

type bufferStatusMessage struct {
	Type            string `json:"type"`
	FramesCollected int    `json:"frames_collected"`
	FramesRequired  int    `json:"frames_required"`
	Ready           bool   `json:"ready"`
}

type predictionMessage struct {
	Type       string  `json:"type"`
	Gesture    string  `json:"gesture"`
	GestureID  int     `json:"gesture_id"`
	Confidence float64 `json:"confidence"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// StreamHandler serves the per-client gesture inference stream. Each
// connection gets its own session: frames arrive as add_frame messages and
// every accepted frame is answered with a buffer status, a prediction, or an
// error event.
type StreamHandler struct {
	registry *session.Registry
	log      *zap.Logger
}

// NewStreamHandler creates a new StreamHandler with the given session registry.
func NewStreamHandler(registry *session.Registry, log *zap.Logger) *StreamHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamHandler{
		registry: registry,
		log:      log,
	}
}

// ServeHTTP upgrades the connection and runs the session's read loop.
// Connection teardown releases the session's state; a malformed message never
// does.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	machine := h.registry.Connect()
	defer h.registry.Disconnect(machine.ID())

	err = conn.WriteJSON(connectionEstablishedMessage{
		Type:           eventConnectionEstablished,
		Status:         "connected",
		FramesRequired: session.FramesRequired,
		SessionID:      machine.ID(),
	})
	if err != nil {
		return
	}

	// Messages for one connection are read and handled sequentially, which
	// preserves frame arrival order for the session's window.
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("connection closed", zap.String("session_id", machine.ID()), zap.Error(err))
			}
			return
		}

		if err := h.handleMessage(conn, machine, msg); err != nil {
			// Write failures mean the client is gone; reads will fail next.
			return
		}
	}
}

// handleMessage dispatches one inbound message and writes the response events.
// The returned error reflects write failures only.
func (h *StreamHandler) handleMessage(conn *websocket.Conn, machine *session.Machine, msg clientMessage) error {
	if msg.Type != eventAddFrame {
		return conn.WriteJSON(errorMessage{
			Type:    eventError,
			Message: "unknown message type: " + msg.Type,
		})
	}

	outcome, err := machine.HandleFrame(msg.Landmarks)
	if err != nil {
		if errors.Is(err, landmark.ErrMalformedFrame) {
			// Non-fatal: report and keep the session's state untouched.
			return conn.WriteJSON(errorMessage{
				Type:    eventError,
				Message: err.Error(),
			})
		}
		h.log.Error("frame handling failed",
			zap.String("session_id", machine.ID()), zap.Error(err))
		return conn.WriteJSON(errorMessage{
			Type:    eventError,
			Message: "internal error",
		})
	}

	err = conn.WriteJSON(bufferStatusMessage{
		Type:            eventBufferStatus,
		FramesCollected: outcome.Status.FramesCollected,
		FramesRequired:  outcome.Status.FramesRequired,
		Ready:           outcome.Status.Ready,
	})
	if err != nil {
		return err
	}

	if outcome.Prediction != nil {
		return conn.WriteJSON(predictionMessage{
			Type:       eventPrediction,
			Gesture:    outcome.Prediction.Gesture,
			GestureID:  outcome.Prediction.GestureID,
			Confidence: outcome.Prediction.Confidence,
		})
	}

	return nil
}
