package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

func TestWebSocketGameFlow(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	org := dialWS(t, server)
	defer org.Close()

	writeMsg(t, org, "hostGame", map[string]any{"quizId": "quiz-1", "name": "Host"})
	var hosted struct {
		Code string `json:"code"`
	}
	mustUnmarshal(t, readUntil(t, org, "gameHosted"), &hosted)
	if len(hosted.Code) != 4 {
		t.Fatalf("expected join code, got %q", hosted.Code)
	}

	player := dialWS(t, server)
	defer player.Close()

	writeMsg(t, player, "validateCode", map[string]any{"code": hosted.Code})
	readUntil(t, player, "codeValid")
	writeMsg(t, player, "joinGame", map[string]any{"code": hosted.Code, "name": "Alice"})
	readUntil(t, player, "joined")

	writeMsg(t, org, "toggleLock", nil)
	requireAck(t, org, "toggleLock")
	writeMsg(t, org, "startGame", nil)
	requireAck(t, org, "startGame")

	// The question-switch cue arrives after the start delay.
	readUntil(t, player, "loadNextQuestion")
	writeMsg(t, player, "getQuestion", nil)
	var question struct {
		Text    string   `json:"text"`
		Choices []string `json:"choices"`
	}
	mustUnmarshal(t, readUntil(t, player, "question"), &question)
	if question.Text == "" || len(question.Choices) != 3 {
		t.Fatalf("unexpected question %+v", question)
	}

	writeMsg(t, player, "toggleChoice", map[string]any{"index": 1})
	requireAck(t, player, "toggleChoice")
	writeMsg(t, player, "finalizeAnswers", nil)
	requireAck(t, player, "finalizeAnswers")

	var result struct {
		IsRight bool `json:"isRight"`
		Points  int  `json:"points"`
	}
	mustUnmarshal(t, readUntil(t, player, "questionResult"), &result)
	if !result.IsRight || result.Points != 20 {
		t.Fatalf("expected winning result, got %+v", result)
	}

	readUntil(t, org, "showResultButton")
	writeMsg(t, org, "showResults", nil)
	requireAck(t, org, "showResults")

	var standings []struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
	}
	mustUnmarshal(t, readUntil(t, player, "finalResults"), &standings)
	if len(standings) != 1 || standings[0].Name != "Alice" || standings[0].Points != 20 {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestWebSocketRejectsUnknownQuiz(t *testing.T) {
	server := newTestServer(t)
	defer server.Close()

	conn := dialWS(t, server)
	defer conn.Close()

	writeMsg(t, conn, "hostGame", map[string]any{"quizId": "no-such-quiz", "name": "Host"})
	var errPayload struct {
		Op      string `json:"op"`
		Message string `json:"message"`
	}
	mustUnmarshal(t, readUntil(t, conn, "error"), &errPayload)
	if errPayload.Op != "hostGame" || errPayload.Message == "" {
		t.Fatalf("unexpected error payload %+v", errPayload)
	}

	writeMsg(t, conn, "bogusType", nil)
	readUntil(t, conn, "error")
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Trivia Night",
			Questions: []domain.Question{
				{
					Text:     "What is 2 + 2?",
					Type:     domain.QuestionMultipleChoice,
					Points:   10,
					Duration: 30,
					Choices: []domain.Choice{
						{Text: "3"},
						{Text: "4", Correct: true},
						{Text: "5"},
					},
				},
			},
		},
	}), time.Minute)
	timing := app.Timing{
		StartDelay:           10 * time.Millisecond,
		InterQuestionDelay:   10 * time.Millisecond,
		QuestionDuration:     30,
		TickInterval:         25 * time.Millisecond,
		PanicTickInterval:    5 * time.Millisecond,
		PanicThresholdChoice: 5,
		PanicThresholdOpen:   20,
		GraceWindow:          40 * time.Millisecond,
		TypingIdleWindow:     30 * time.Millisecond,
	}
	hub := NewHub(zerolog.Nop())
	service := app.NewGameService(memory.NewSessionRegistry(), quizRepo, memory.NewHistoryRecorder(), hub, timing, zerolog.Nop())
	wsHandler := NewWSHandler(service, hub, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil drains the connection until a message of the wanted type arrives,
// skipping timer refreshes and other interleaved broadcasts.
func readUntil(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", want, err)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message arrived", want)
	return nil
}

func requireAck(t *testing.T, conn *websocket.Conn, op string) {
	t.Helper()
	for {
		var ack struct {
			Op string `json:"op"`
			OK bool   `json:"ok"`
		}
		mustUnmarshal(t, readUntil(t, conn, "ack"), &ack)
		if ack.Op != op {
			continue
		}
		if !ack.OK {
			t.Fatalf("%s not acknowledged", op)
		}
		return
	}
}

func mustUnmarshal(t *testing.T, raw json.RawMessage, into any) {
	t.Helper()
	if err := json.Unmarshal(raw, into); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}
