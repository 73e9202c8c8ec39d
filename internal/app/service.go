package app

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"livequiz-service/internal/domain"
)

// Registry owns the collection of live sessions keyed by join code and the
// binding from connection IDs to sessions. Implementations must support
// concurrent lookups; there are no cross-session invariants.
type Registry interface {
	// Insert assigns a fresh join code, attaches it to the session and
	// stores it. Codes are unique among active sessions only.
	Insert(s *Session) string
	Get(code string) (*Session, bool)
	// Bind routes a connection ID to a session; ByConn resolves it back.
	Bind(connID, code string)
	Unbind(connID string)
	ByConn(connID string) (*Session, bool)
	Remove(code string)
}

// QuizRepository loads quiz content (from cache/backing store). The game
// core treats the content as read-only.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// HistoryRecorder appends one summary per finished game. Failures must not
// block the result-view transition.
type HistoryRecorder interface {
	Record(ctx context.Context, summary domain.SessionSummary) error
}

// GameService is the dispatch surface of the orchestration core: the
// transport resolves inbound events to these methods, which in turn resolve
// the session via the registry and delegate to it. Boolean returns are
// negative acknowledgements for guarded requests; join flows return
// distinguishable errors.
type GameService struct {
	registry Registry
	quizzes  QuizRepository
	history  HistoryRecorder
	bc       Broadcaster
	clock    clockwork.Clock
	timing   Timing
	log      zerolog.Logger
}

// NewGameService wires the core. A zero timing falls back to the defaults.
func NewGameService(registry Registry, quizzes QuizRepository, history HistoryRecorder, bc Broadcaster, timing Timing, logger zerolog.Logger) *GameService {
	if timing.TickInterval == 0 {
		timing = DefaultTiming()
	}
	return &GameService{
		registry: registry,
		quizzes:  quizzes,
		history:  history,
		bc:       bc,
		clock:    clockwork.NewRealClock(),
		timing:   timing,
		log:      logger,
	}
}

// WithClock swaps the clock before any session exists; test-only.
func (g *GameService) WithClock(clock clockwork.Clock) *GameService {
	g.clock = clock
	return g
}

func (g *GameService) deps() SessionDeps {
	return SessionDeps{
		Clock:       g.clock,
		Timing:      g.timing,
		Broadcaster: g.bc,
		History:     g.history,
		Logger:      g.log,
	}
}

// HostGame creates a session in the waiting room with the caller as
// organizer and returns its join code. With random set, the organizer will
// self-demote into a playing participant at start.
func (g *GameService) HostGame(ctx context.Context, connID, quizID, organizerName string, random bool) (string, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}
	sess := NewSession(quiz, g.deps(), connID, organizerName, random)
	code := g.registry.Insert(sess)
	g.registry.Bind(connID, code)
	g.log.Info().Str("quiz_id", quizID).Str("join_code", code).Bool("random", random).Msg("game hosted")
	return code, nil
}

// HostTestGame creates a single-player tester session already answering the
// first question.
func (g *GameService) HostTestGame(ctx context.Context, connID, quizID string) (string, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}
	sess := NewTestSession(quiz, g.deps(), connID)
	code := g.registry.Insert(sess)
	g.registry.Bind(connID, code)
	sess.Launch()
	return code, nil
}

// ValidateJoinCode checks a code ahead of joining: the session must exist
// and accept joins. Name-level checks happen in JoinGame.
func (g *GameService) ValidateJoinCode(code string) error {
	sess, ok := g.registry.Get(code)
	if !ok {
		return domain.ErrGameNotFound
	}
	return sess.Joinable()
}

// JoinGame performs a regular participant join against a code.
func (g *GameService) JoinGame(connID, code, name string) error {
	sess, ok := g.registry.Get(code)
	if !ok {
		return domain.ErrGameNotFound
	}
	if err := sess.AddParticipant(connID, name); err != nil {
		return err
	}
	g.registry.Bind(connID, code)
	return nil
}

// Disconnect applies drop semantics for a connection and tears the session
// down when it was load-bearing (organizer, or last connected participant).
func (g *GameService) Disconnect(connID string) {
	sess, ok := g.registry.ByConn(connID)
	if !ok {
		return
	}
	g.registry.Unbind(connID)
	if sess.HandleDisconnect(connID) {
		g.teardown(sess)
	}
}

// teardown removes the session and closes whatever connections remain.
// Session close and registry removal stay on this single path so no timer
// callback can observe a removed-but-live session.
func (g *GameService) teardown(sess *Session) {
	conns := sess.Teardown()
	g.registry.Remove(sess.JoinCode())
	for _, id := range conns {
		g.registry.Unbind(id)
		g.bc.CloseConn(id)
	}
}

func (g *GameService) session(connID string) (*Session, bool) {
	return g.registry.ByConn(connID)
}

// StartGame requests the waiting room to start.
func (g *GameService) StartGame(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.StartGame(connID)
}

// ToggleLock flips the session's join lock.
func (g *GameService) ToggleLock(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.ToggleLock(connID)
}

// CurrentQuestion serves the caller's view of the current question.
func (g *GameService) CurrentQuestion(connID string) (QuestionView, bool) {
	sess, ok := g.session(connID)
	if !ok {
		return QuestionView{}, false
	}
	return sess.CurrentQuestion(connID)
}

// PlayerList serves the roster snapshot.
func (g *GameService) PlayerList(connID string) ([]PlayerInfo, bool) {
	sess, ok := g.session(connID)
	if !ok {
		return nil, false
	}
	return sess.PlayerList(connID)
}

// Duration serves the remaining countdown seconds.
func (g *GameService) Duration(connID string) (int, bool) {
	sess, ok := g.session(connID)
	if !ok {
		return 0, false
	}
	return sess.Duration(connID)
}

// ToggleChoice flips one multiple-choice selection.
func (g *GameService) ToggleChoice(connID string, idx int) bool {
	sess, ok := g.session(connID)
	return ok && sess.ToggleChoice(connID, idx)
}

// SubmitLongResponse records an open-response keystroke update.
func (g *GameService) SubmitLongResponse(connID, text string) bool {
	sess, ok := g.session(connID)
	return ok && sess.SubmitLongResponse(connID, text)
}

// FinalizeAnswers flags the caller's answers final.
func (g *GameService) FinalizeAnswers(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.FinalizeAnswer(connID)
}

// AdvanceQuestion requests the next question (or results after the last).
func (g *GameService) AdvanceQuestion(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.AdvanceQuestion(connID)
}

// ShowResults requests the terminal result view.
func (g *GameService) ShowResults(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.ShowResults(connID)
}

// TogglePause flips the countdown pause.
func (g *GameService) TogglePause(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.TogglePause(connID)
}

// EnterPanic requests the accelerated tick cadence.
func (g *GameService) EnterPanic(connID string) bool {
	sess, ok := g.session(connID)
	return ok && sess.EnterPanic(connID)
}

// BanPlayer bans a name for the session's lifetime.
func (g *GameService) BanPlayer(connID, name string) bool {
	sess, ok := g.session(connID)
	if !ok {
		return false
	}
	kicked, ok := sess.BanParticipant(connID, name)
	if kicked != "" {
		g.registry.Unbind(kicked)
	}
	return ok
}

// ToggleMute flips a participant's mute flag.
func (g *GameService) ToggleMute(connID, name string) bool {
	sess, ok := g.session(connID)
	return ok && sess.ToggleMute(connID, name)
}

// SendChat relays a chat message.
func (g *GameService) SendChat(connID, text string) bool {
	sess, ok := g.session(connID)
	return ok && sess.SendChat(connID, text)
}

// EvaluateResponses applies the organizer's open-response grades.
func (g *GameService) EvaluateResponses(connID string, grades []Grade) bool {
	sess, ok := g.session(connID)
	return ok && sess.EvaluateResponses(connID, grades)
}
