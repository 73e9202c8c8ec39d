package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
	"livequiz-service/internal/infra/memory"
)

// sinkBroadcaster drops events; the service tests only care about state and
// forced closes.
type sinkBroadcaster struct {
	mu     sync.Mutex
	closed []string
}

func (b *sinkBroadcaster) Send(string, app.Event) {}

func (b *sinkBroadcaster) CloseConn(connID string) {
	b.mu.Lock()
	b.closed = append(b.closed, connID)
	b.mu.Unlock()
}

func (b *sinkBroadcaster) closedConns() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.closed))
	copy(out, b.closed)
	return out
}

func newTestService() (*app.GameService, *sinkBroadcaster, *memory.HistoryRecorder) {
	bc := &sinkBroadcaster{}
	history := memory.NewHistoryRecorder()
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
	}), 5*time.Minute)
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
	service := app.NewGameService(memory.NewSessionRegistry(), quizRepo, history, bc, timing, zerolog.Nop())
	return service, bc, history
}

func TestHostValidateAndJoin(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.HostGame(ctx, "org", "no-such-quiz", "Host", false); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}

	code, err := service.HostGame(ctx, "org", "quiz-1", "Host", false)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if len(code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", code)
	}

	// Codes are drawn from 1000-9999.
	if err := service.ValidateJoinCode("0000"); err != domain.ErrGameNotFound {
		t.Fatalf("expected game not found, got %v", err)
	}
	if err := service.ValidateJoinCode(code); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := service.JoinGame("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := service.JoinGame("p2", code, "Alice"); err != domain.ErrNameTaken {
		t.Fatalf("expected name taken, got %v", err)
	}

	if !service.ToggleLock("org") {
		t.Fatalf("lock failed")
	}
	if err := service.ValidateJoinCode(code); err != domain.ErrGameLocked {
		t.Fatalf("expected locked, got %v", err)
	}
}

func TestFullGameRecordsHistory(t *testing.T) {
	ctx := context.Background()
	service, _, history := newTestService()

	code, err := service.HostGame(ctx, "org", "quiz-1", "Host", false)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if err := service.JoinGame("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := service.JoinGame("p2", code, "Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !service.ToggleLock("org") || !service.StartGame("org") {
		t.Fatalf("start failed")
	}

	require.Eventually(t, func() bool {
		_, ok := service.CurrentQuestion("p1")
		return ok
	}, 2*time.Second, time.Millisecond)

	if !service.ToggleChoice("p1", 1) {
		t.Fatalf("toggle failed")
	}
	if !service.FinalizeAnswers("p1") || !service.FinalizeAnswers("p2") {
		t.Fatalf("finalize failed")
	}
	// Single-question quiz: advancing from the last question ends the game.
	if !service.AdvanceQuestion("org") {
		t.Fatalf("advance failed")
	}

	require.Eventually(t, func() bool {
		return len(history.Summaries()) == 1
	}, 2*time.Second, time.Millisecond)

	summary := history.Summaries()[0]
	if summary.Title != "Trivia Night" || summary.ParticipantCount != 2 || summary.BestScore != 20 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	players, ok := service.PlayerList("org")
	if !ok || len(players) != 2 {
		t.Fatalf("expected roster of 2, got %v", players)
	}
	if players[0].Points != 20 || players[1].Points != 0 {
		t.Fatalf("expected alice 20 and bob 0, got %+v", players)
	}
}

func TestOrganizerDisconnectRemovesSession(t *testing.T) {
	ctx := context.Background()
	service, bc, _ := newTestService()

	code, err := service.HostGame(ctx, "org", "quiz-1", "Host", false)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if err := service.JoinGame("p1", code, "Alice"); err != nil {
		t.Fatalf("join: %v", err)
	}

	service.Disconnect("org")

	if err := service.ValidateJoinCode(code); err != domain.ErrGameNotFound {
		t.Fatalf("expected session gone, got %v", err)
	}
	if _, ok := service.PlayerList("p1"); ok {
		t.Fatalf("expected participant unbound")
	}
	closed := bc.closedConns()
	if len(closed) != 1 || closed[0] != "p1" {
		t.Fatalf("expected remaining connection closed, got %v", closed)
	}
	// Disconnecting an unknown connection is a no-op.
	service.Disconnect("ghost")
}

func TestBanPlayerUnbindsConnection(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	code, err := service.HostGame(ctx, "org", "quiz-1", "Host", false)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	if err := service.JoinGame("p1", code, "Eve"); err != nil {
		t.Fatalf("join: %v", err)
	}

	if !service.BanPlayer("org", "Eve") {
		t.Fatalf("ban failed")
	}
	if _, ok := service.PlayerList("p1"); ok {
		t.Fatalf("expected kicked connection unbound")
	}
	if err := service.JoinGame("p2", code, "eve"); err != domain.ErrNameBanned {
		t.Fatalf("expected banned, got %v", err)
	}
}

func TestHostTestGameServesImmediately(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService()

	if _, err := service.HostTestGame(ctx, "tc", "quiz-1"); err != nil {
		t.Fatalf("host test game: %v", err)
	}
	view, ok := service.CurrentQuestion("tc")
	if !ok || view.Total != 1 || len(view.Choices) != 3 {
		t.Fatalf("expected first question served, got ok=%v view=%+v", ok, view)
	}
	if _, ok := service.Duration("tc"); !ok {
		t.Fatalf("expected running countdown")
	}
}
