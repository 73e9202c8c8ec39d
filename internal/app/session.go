package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"livequiz-service/internal/domain"
)

// SessionState is the lifecycle phase of a live game.
type SessionState int

const (
	StateWaitingRoom SessionState = iota
	StateSwitchingQuestion
	StateAnsweringQuestion
	StateQuestionFinalized
	StateResultView
)

func (s SessionState) String() string {
	switch s {
	case StateWaitingRoom:
		return "waiting_room"
	case StateSwitchingQuestion:
		return "switching_question"
	case StateAnsweringQuestion:
		return "answering_question"
	case StateQuestionFinalized:
		return "question_finalized"
	case StateResultView:
		return "result_view"
	}
	return "unknown"
}

// ConnState is a participant's per-question connection phase.
type ConnState int

const (
	ConnConnected ConnState = iota
	ConnAnswering
	ConnFinalized
	ConnDisconnected
)

func (c ConnState) String() string {
	switch c {
	case ConnConnected:
		return "connected"
	case ConnAnswering:
		return "answering"
	case ConnFinalized:
		return "finalized"
	case ConnDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Participant is one player's record. Records are never deleted mid-game,
// only marked disconnected, so final standings keep every score.
type Participant struct {
	ID               string // connection identifier; a reconnect is a brand new join
	Name             string
	Points           int
	FirstAnswerCount int
	CurrentChoices   []bool
	LongResponse     string
	HasFinalized     bool
	IsFirstToAnswer  bool
	State            ConnState
	Muted            bool

	typingActive bool
	typingGen    int
	typingTimer  clockwork.Timer
	graded       bool // latched once per question so re-grades cannot stack
}

// SessionDeps bundles the collaborators a session needs.
type SessionDeps struct {
	Clock       clockwork.Clock
	Timing      Timing
	Broadcaster Broadcaster
	History     HistoryRecorder
	Logger      zerolog.Logger
}

func (d SessionDeps) withDefaults() SessionDeps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Timing.TickInterval == 0 {
		d.Timing = DefaultTiming()
	}
	return d
}

// Session is one live game keyed by its join code. A single mutex serializes
// every mutation: timer ticks, participant actions and organizer actions all
// interleave through it.
type Session struct {
	mu sync.Mutex

	code string
	quiz domain.Quiz

	organizer    *Participant // nil once vacated (random-mode demotion, tester games)
	vacated      bool
	participants []*Participant
	banned       map[string]struct{} // lowercased names, permanent for the session
	locked       bool
	tester       bool
	random       bool

	state          SessionState
	questionIdx    int
	served         bool // current question fetched at least once
	panicUsed      bool
	advancePending bool

	firstToAnswer *Participant
	graceTimer    clockwork.Timer
	delayTimer    clockwork.Timer

	goodAnswers   int
	finishedCount int // connected participants that finalized this question
	typingCount   int
	choiceTally   []int
	gradeBuckets  [3]int

	timer   *Countdown
	clock   clockwork.Clock
	timing  Timing
	bc      Broadcaster
	history HistoryRecorder
	log     zerolog.Logger

	startTime time.Time
	closed    bool
}

// NewSession creates a game in the waiting room with the given organizer
// connection. The join code is attached by the registry before the session
// is shared.
func NewSession(quiz domain.Quiz, deps SessionDeps, organizerConn, organizerName string, random bool) *Session {
	deps = deps.withDefaults()
	if organizerName == "" {
		organizerName = "host"
	}
	s := newBareSession(quiz, deps)
	s.random = random
	s.organizer = &Participant{ID: organizerConn, Name: organizerName, State: ConnConnected}
	return s
}

// NewTestSession creates a single-player tester game. There is no organizer;
// the sole synthetic participant plays and the system evaluates.
func NewTestSession(quiz domain.Quiz, deps SessionDeps, testerConn string) *Session {
	deps = deps.withDefaults()
	s := newBareSession(quiz, deps)
	s.tester = true
	s.vacated = true
	s.locked = true
	s.participants = []*Participant{{ID: testerConn, Name: "tester", State: ConnConnected}}
	return s
}

func newBareSession(quiz domain.Quiz, deps SessionDeps) *Session {
	return &Session{
		quiz:    quiz,
		banned:  make(map[string]struct{}),
		state:   StateWaitingRoom,
		timer:   NewCountdown(deps.Clock, deps.Timing.TickInterval, deps.Timing.PanicTickInterval),
		clock:   deps.Clock,
		timing:  deps.Timing,
		bc:      deps.Broadcaster,
		history: deps.History,
		log:     deps.Logger,
	}
}

// SetJoinCode attaches the registry-assigned code. Called exactly once,
// before the session is visible to any other goroutine.
func (s *Session) SetJoinCode(code string) {
	s.code = code
	s.log = s.log.With().Str("join_code", code).Logger()
}

// JoinCode returns the session's code.
func (s *Session) JoinCode() string {
	return s.code
}

// State reports the current lifecycle phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Joinable rejects lookups against locked sessions; the per-name checks
// happen at join time.
func (s *Session) Joinable() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrGameNotFound
	}
	if s.locked {
		return domain.ErrGameLocked
	}
	return nil
}

func (s *Session) currentQuestionLocked() domain.Question {
	return s.quiz.Questions[s.questionIdx]
}

func (s *Session) lastQuestionLocked() bool {
	return s.questionIdx >= len(s.quiz.Questions)-1
}

func (s *Session) questionDurationLocked() int {
	if d := s.currentQuestionLocked().Duration; d > 0 {
		return d
	}
	return s.timing.QuestionDuration
}

func questionPoints(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

func (s *Session) isOrganizerLocked(connID string) bool {
	return s.organizer != nil && s.organizer.ID == connID
}

func (s *Session) participantLocked(connID string) *Participant {
	for _, p := range s.participants {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

func (s *Session) participantByNameLocked(name string) *Participant {
	for _, p := range s.participants {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (s *Session) isMemberLocked(connID string) bool {
	return s.isOrganizerLocked(connID) || s.participantLocked(connID) != nil
}

func (s *Session) nameTakenLocked(name string) bool {
	if s.organizer != nil && strings.EqualFold(s.organizer.Name, name) {
		return true
	}
	return s.participantByNameLocked(name) != nil
}

func (s *Session) connectedCountLocked() int {
	n := 0
	for _, p := range s.participants {
		if p.State != ConnDisconnected {
			n++
		}
	}
	return n
}

// strategyLocked picks the answer engine for the current question.
func (s *Session) strategyLocked() answerStrategy {
	if s.currentQuestionLocked().Type == domain.QuestionOpenResponse {
		return openStrategy{}
	}
	return choiceStrategy{}
}

func (s *Session) playerInfoLocked(p *Participant) PlayerInfo {
	return PlayerInfo{
		Name:         p.Name,
		Points:       p.Points,
		FirstAnswers: p.FirstAnswerCount,
		State:        p.State.String(),
		Muted:        p.Muted,
		Finalized:    p.HasFinalized,
	}
}

func (s *Session) playerListLocked() []PlayerInfo {
	list := make([]PlayerInfo, 0, len(s.participants))
	for _, p := range s.participants {
		list = append(list, s.playerInfoLocked(p))
	}
	return list
}

func (s *Session) standingsLocked() []FinalStanding {
	rows := make([]FinalStanding, 0, len(s.participants))
	for _, p := range s.participants {
		rows = append(rows, FinalStanding{Name: p.Name, Points: p.Points, FirstAnswers: p.FirstAnswerCount})
	}
	// Points descending; join order breaks ties.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Points > rows[j].Points })
	return rows
}

// broadcastLocked sends to the organizer and every connected participant.
func (s *Session) broadcastLocked(evt Event) {
	if s.organizer != nil {
		s.bc.Send(s.organizer.ID, evt)
	}
	for _, p := range s.participants {
		if p.State != ConnDisconnected {
			s.bc.Send(p.ID, evt)
		}
	}
}

func (s *Session) toOrganizerLocked(evt Event) {
	if s.organizer != nil {
		s.bc.Send(s.organizer.ID, evt)
	}
}

func (s *Session) toParticipantLocked(p *Participant, evt Event) {
	if p.State != ConnDisconnected {
		s.bc.Send(p.ID, evt)
	}
}

func (s *Session) notifyPlayerStateLocked(p *Participant) {
	s.toOrganizerLocked(Event{Type: EventPlayerStateChanged, Payload: s.playerInfoLocked(p)})
}

// prepareQuestionLocked resets all per-question state for the question at
// the current index: choice vectors are reallocated to the question's choice
// count, counters and flags cleared, and everyone not disconnected promoted
// back to connected.
func (s *Session) prepareQuestionLocked() {
	q := s.currentQuestionLocked()
	s.served = false
	s.panicUsed = false
	s.advancePending = false
	s.goodAnswers = 0
	s.finishedCount = 0
	s.cancelGraceLocked()
	s.clearTypingLocked(false)
	for _, p := range s.participants {
		p.CurrentChoices = make([]bool, len(q.Choices))
		p.LongResponse = ""
		p.HasFinalized = false
		p.IsFirstToAnswer = false
		p.graded = false
		if p.State != ConnDisconnected {
			p.State = ConnConnected
		}
	}
	s.strategyLocked().resetCounters(s, q)
}

func (s *Session) cancelGraceLocked() {
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	s.firstToAnswer = nil
}

// clearTypingLocked stops every debounce timer and zeroes the typing tally.
func (s *Session) clearTypingLocked(push bool) {
	for _, p := range s.participants {
		if p.typingTimer != nil {
			p.typingTimer.Stop()
			p.typingTimer = nil
		}
		p.typingActive = false
		p.typingGen++
	}
	s.typingCount = 0
	if push {
		s.toOrganizerLocked(Event{Type: EventTypingCount, Payload: TypingPayload{Typing: 0}})
	}
}

func (s *Session) cancelDelayLocked() {
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
}
