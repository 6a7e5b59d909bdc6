package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/testdata"
)

// serverEvent is the union of all event payloads the server can send.
type serverEvent struct {
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	SessionID       string  `json:"session_id"`
	FramesCollected int     `json:"frames_collected"`
	FramesRequired  int     `json:"frames_required"`
	Ready           bool    `json:"ready"`
	Gesture         string  `json:"gesture"`
	GestureID       int     `json:"gesture_id"`
	Confidence      float64 `json:"confidence"`
	Message         string  `json:"message"`
}

// dialStream starts a test server with the given classifier output and dials
// the streaming endpoint, consuming the connection handshake.
func dialStream(t *testing.T, probs []float64) (*websocket.Conn, *session.Registry) {
	t.Helper()

	engine, _ := testEngine(t, probs)

	registry := session.NewRegistry(session.MachineConfig{
		Engine:              engine,
		ConfidenceThreshold: 0.7,
		Cooldown:            2 * time.Second,
	})

	srv := New(Config{Engine: engine, Registry: registry})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	established := readEvent(t, conn)
	if established.Type != "connection_established" {
		t.Fatalf("handshake type = %q, want connection_established", established.Type)
	}
	if established.Status != "connected" {
		t.Errorf("handshake status = %q, want connected", established.Status)
	}
	if established.SessionID == "" {
		t.Error("handshake session_id is empty")
	}
	if established.FramesRequired != session.FramesRequired {
		t.Errorf("handshake frames_required = %d, want %d", established.FramesRequired, session.FramesRequired)
	}

	return conn, registry
}

func sendFrame(t *testing.T, conn *websocket.Conn, landmarks []float64) {
	t.Helper()

	msg := map[string]interface{}{
		"type":      "add_frame",
		"landmarks": landmarks,
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) serverEvent {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var event serverEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

// Scenario A: 40 valid frames produce 39 not-ready statuses, one ready
// status, and one prediction.
func TestStream_FullWindowPredicts(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.05, 0.9, 0.05})

	for i := 1; i <= session.FramesRequired; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))

		status := readEvent(t, conn)
		if status.Type != "buffer_status" {
			t.Fatalf("frame %d: event type = %q, want buffer_status", i, status.Type)
		}
		if status.FramesCollected != i {
			t.Errorf("frame %d: frames_collected = %d, want %d", i, status.FramesCollected, i)
		}

		wantReady := i == session.FramesRequired
		if status.Ready != wantReady {
			t.Errorf("frame %d: ready = %v, want %v", i, status.Ready, wantReady)
		}
	}

	prediction := readEvent(t, conn)
	if prediction.Type != "prediction" {
		t.Fatalf("event type = %q, want prediction", prediction.Type)
	}
	if prediction.Gesture != "gracias" {
		t.Errorf("gesture = %q, want %q", prediction.Gesture, "gracias")
	}
	if prediction.GestureID != 1 {
		t.Errorf("gesture_id = %d, want 1", prediction.GestureID)
	}
	if prediction.Confidence != 0.9 {
		t.Errorf("confidence = %f, want 0.9", prediction.Confidence)
	}
}

// A low-confidence window fills but never emits.
func TestStream_ConfidenceGate(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.4, 0.35, 0.25})

	for i := 1; i <= session.FramesRequired; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))

		status := readEvent(t, conn)
		if status.Type != "buffer_status" {
			t.Fatalf("frame %d: event type = %q, want buffer_status", i, status.Type)
		}
	}

	// One more frame: still only a status, never a prediction.
	sendFrame(t, conn, testdata.TwoHandFrame(0.5))
	event := readEvent(t, conn)
	if event.Type != "buffer_status" {
		t.Errorf("event type = %q, want buffer_status (no emission below threshold)", event.Type)
	}
}

// Scenario B: a one-hand frame clears a partially filled buffer.
func TestStream_OneHandFrameClearsBuffer(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.9, 0.05, 0.05})

	for i := 1; i <= 20; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))
		readEvent(t, conn)
	}

	sendFrame(t, conn, testdata.OneHandFrame(0.5))

	status := readEvent(t, conn)
	if status.Type != "buffer_status" {
		t.Fatalf("event type = %q, want buffer_status", status.Type)
	}
	if status.FramesCollected != 0 {
		t.Errorf("frames_collected = %d, want 0 after one-hand frame", status.FramesCollected)
	}

	// Collection restarts from scratch.
	sendFrame(t, conn, testdata.TwoHandFrame(0.5))
	status = readEvent(t, conn)
	if status.FramesCollected != 1 {
		t.Errorf("frames_collected = %d, want 1", status.FramesCollected)
	}
}

// Scenario C: a second full window within the cooldown is not evaluated and
// drains the smaller fixed count.
func TestStream_CooldownBlocksSecondPrediction(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.05, 0.9, 0.05})

	for i := 1; i <= session.FramesRequired; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))
		readEvent(t, conn)
	}

	if event := readEvent(t, conn); event.Type != "prediction" {
		t.Fatalf("event type = %q, want prediction", event.Type)
	}

	// The prediction drain left 20 frames; 20 more refill the window well
	// within the 2s cooldown.
	refill := session.FramesRequired - session.PredictionDrain
	for i := 1; i <= refill; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))

		status := readEvent(t, conn)
		if status.Type != "buffer_status" {
			t.Fatalf("refill frame %d: event type = %q, want buffer_status (no second prediction)", i, status.Type)
		}
	}

	// The full window was drained by the cooldown amount, not cleared: the
	// next frame lands on a buffer of 30, not 1 and not 40.
	sendFrame(t, conn, testdata.TwoHandFrame(0.5))
	status := readEvent(t, conn)
	want := session.FramesRequired - session.CooldownDrain + 1
	if status.FramesCollected != want {
		t.Errorf("frames_collected = %d, want %d", status.FramesCollected, want)
	}
}

// Scenario D: a wrong-length frame produces an error event and leaves the
// buffer unchanged.
func TestStream_MalformedFrame(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.9, 0.05, 0.05})

	for i := 1; i <= 5; i++ {
		sendFrame(t, conn, testdata.TwoHandFrame(0.5))
		readEvent(t, conn)
	}

	sendFrame(t, conn, testdata.ShortFrame(100))

	event := readEvent(t, conn)
	if event.Type != "error" {
		t.Fatalf("event type = %q, want error", event.Type)
	}
	if event.Message == "" {
		t.Error("error event has an empty message")
	}

	// The session survives and the buffer is unchanged.
	sendFrame(t, conn, testdata.TwoHandFrame(0.5))
	status := readEvent(t, conn)
	if status.Type != "buffer_status" {
		t.Fatalf("event type = %q, want buffer_status", status.Type)
	}
	if status.FramesCollected != 6 {
		t.Errorf("frames_collected = %d, want 6", status.FramesCollected)
	}
}

func TestStream_UnknownMessageType(t *testing.T) {
	conn, _ := dialStream(t, []float64{0.9, 0.05, 0.05})

	if err := conn.WriteJSON(map[string]interface{}{"type": "bogus"}); err != nil {
		t.Fatalf("write message: %v", err)
	}

	event := readEvent(t, conn)
	if event.Type != "error" {
		t.Errorf("event type = %q, want error", event.Type)
	}
}

func TestStream_DisconnectReleasesSession(t *testing.T) {
	conn, registry := dialStream(t, []float64{0.9, 0.05, 0.05})

	if registry.Len() != 1 {
		t.Fatalf("registry.Len() = %d, want 1", registry.Len())
	}

	conn.Close()

	// The read loop notices the close asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("registry.Len() = %d, want 0 after disconnect", registry.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
