package app

import (
	"context"
	"time"

	"livequiz-service/internal/domain"
)

// StartGame moves a waiting room into the game proper. Only the organizer
// may start (any member in random mode), the room must be locked against
// further joins, and at least one participant must be present. The first
// question loads after the configured start delay.
func (s *Session) StartGame(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateWaitingRoom || s.advancePending {
		return false
	}
	if !s.isOrganizerLocked(connID) && !(s.random && s.isMemberLocked(connID)) {
		return false
	}
	if !s.locked || len(s.participants) == 0 {
		return false
	}
	// Waits out the start delay in WaitingRoom; the pending flag stops a
	// second start from double-scheduling the first question.
	s.advancePending = true
	s.startTime = s.clock.Now()
	if s.random && s.organizer != nil {
		// The organizer of a random game plays along: demote into the
		// participant list and vacate the organizer seat.
		org := s.organizer
		org.State = ConnConnected
		s.participants = append(s.participants, org)
		s.organizer = nil
		s.vacated = true
	}
	s.broadcastLocked(Event{Type: EventGameStarting})
	s.delayTimer = s.clock.AfterFunc(s.timing.StartDelay, func() { s.beginQuestion(0) })
	s.log.Info().Bool("random", s.random).Msg("game starting")
	return true
}

// Launch drives a tester game straight into answering the first question.
func (s *Session) Launch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateWaitingRoom {
		return
	}
	s.startTime = s.clock.Now()
	s.beginQuestionLocked(0)
	s.serveQuestionLocked()
}

// beginQuestion is the delayed entry into SwitchingQuestion, used both for
// the start delay and the inter-question delay.
func (s *Session) beginQuestion(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateResultView {
		return
	}
	s.beginQuestionLocked(idx)
}

func (s *Session) beginQuestionLocked(idx int) {
	if idx >= len(s.quiz.Questions) || idx < s.questionIdx {
		return
	}
	s.questionIdx = idx
	s.state = StateSwitchingQuestion
	s.prepareQuestionLocked()
	s.broadcastLocked(Event{Type: EventLoadNextQuestion, Payload: map[string]int{"index": idx}})
}

// CurrentQuestion returns the caller's view of the current question. The
// first fetch after a question switch arms the countdown and moves the
// session into AnsweringQuestion; later fetches are read-only.
func (s *Session) CurrentQuestion(connID string) (QuestionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.isMemberLocked(connID) {
		return QuestionView{}, false
	}
	switch s.state {
	case StateSwitchingQuestion:
		if !s.served {
			s.serveQuestionLocked()
		}
	case StateAnsweringQuestion, StateQuestionFinalized:
		// Late fetches are fine; the timer is already running or done.
	default:
		return QuestionView{}, false
	}
	return s.questionViewLocked(), true
}

func (s *Session) serveQuestionLocked() {
	s.served = true
	s.state = StateAnsweringQuestion
	dur := s.questionDurationLocked()
	// The callbacks carry the index they were armed for; a beat from a
	// countdown the session has already moved past must not touch the
	// current question.
	idx := s.questionIdx
	s.timer.Start(dur,
		func(remaining int) { s.onTimerTick(idx, remaining) },
		func() { s.onTimerDone(idx) })
	s.broadcastLocked(Event{Type: EventTimerRefresh, Payload: TimerPayload{Remaining: dur}})
}

func (s *Session) questionViewLocked() QuestionView {
	q := s.currentQuestionLocked()
	view := QuestionView{
		Index:    s.questionIdx,
		Total:    len(s.quiz.Questions),
		Text:     q.Text,
		Type:     q.Type,
		Points:   questionPoints(q),
		Duration: s.questionDurationLocked(),
	}
	for _, c := range q.Choices {
		view.Choices = append(view.Choices, c.Text)
	}
	return view
}

func (s *Session) onTimerTick(idx, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion || s.questionIdx != idx {
		return
	}
	s.broadcastLocked(Event{Type: EventTimerRefresh, Payload: TimerPayload{Remaining: remaining}})
}

// onTimerDone force-finalizes the question: every connected participant who
// has not finalized is finalized with whatever partial answer they hold.
// Completions armed for an earlier question are ignored.
func (s *Session) onTimerDone(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion || s.questionIdx != idx {
		return
	}
	strat := s.strategyLocked()
	for _, p := range s.participants {
		if p.State == ConnDisconnected || p.HasFinalized {
			continue
		}
		p.HasFinalized = true
		p.State = ConnFinalized
		s.finishedCount++
		strat.validate(s, p)
	}
	strat.finalize(s)
}

// maybeFinalizeLocked ends the question early once every connected
// participant has flagged their answers final.
func (s *Session) maybeFinalizeLocked() {
	if s.state != StateAnsweringQuestion {
		return
	}
	connected := s.connectedCountLocked()
	if connected > 0 && s.finishedCount >= connected {
		s.strategyLocked().finalize(s)
	}
}

// AdvanceQuestion moves a finalized question forward: to the next question
// after the inter-question delay, or to the result view after the last one.
func (s *Session) AdvanceQuestion(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateQuestionFinalized || s.advancePending {
		return false
	}
	if !s.isOrganizerLocked(connID) && !(s.random && s.isMemberLocked(connID)) && !(s.tester && s.isMemberLocked(connID)) {
		return false
	}
	if s.lastQuestionLocked() {
		s.goToResultsLocked()
		return true
	}
	s.scheduleAdvanceLocked()
	return true
}

func (s *Session) scheduleAdvanceLocked() {
	s.advancePending = true
	next := s.questionIdx + 1
	s.delayTimer = s.clock.AfterFunc(s.timing.InterQuestionDelay, func() { s.beginQuestion(next) })
}

// ShowResults enters the terminal result view. Only valid on the last,
// finalized question.
func (s *Session) ShowResults(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateQuestionFinalized || !s.lastQuestionLocked() {
		return false
	}
	if !s.isOrganizerLocked(connID) && !(s.random && s.isMemberLocked(connID)) && !(s.tester && s.isMemberLocked(connID)) {
		return false
	}
	s.goToResultsLocked()
	return true
}

func (s *Session) goToResultsLocked() {
	s.state = StateResultView
	s.timer.Stop()
	s.cancelGraceLocked()
	standings := s.standingsLocked()
	s.broadcastLocked(Event{Type: EventFinalResults, Payload: standings})
	s.recordHistoryLocked(standings)
	s.log.Info().Int("participants", len(s.participants)).Msg("game reached results")
}

// recordHistoryLocked appends the session summary fire-and-forget: a history
// failure is logged and never blocks or rolls back the result view.
func (s *Session) recordHistoryLocked(standings []FinalStanding) {
	if s.history == nil {
		return
	}
	best := 0
	if len(standings) > 0 {
		best = standings[0].Points
	}
	summary := domain.SessionSummary{
		Title:            s.quiz.Title,
		StartTime:        s.startTime,
		ParticipantCount: len(s.participants),
		BestScore:        best,
	}
	h := s.history
	logger := s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Record(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("history append failed")
		}
	}()
}

// TogglePause flips the countdown's pause flag. Organizer only, and only
// while a question is being answered.
func (s *Session) TogglePause(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion || !s.isOrganizerLocked(connID) {
		return false
	}
	paused := s.timer.TogglePause()
	s.broadcastLocked(Event{Type: EventTimerPauseState, Payload: PauseState{Paused: paused}})
	return true
}

// EnterPanic accelerates the tick cadence for the rest of the countdown.
// Organizer only, once per question, and only when the remaining time is at
// or below the question type's threshold.
func (s *Session) EnterPanic(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion || !s.isOrganizerLocked(connID) || s.panicUsed {
		return false
	}
	threshold := s.timing.PanicThresholdChoice
	if s.currentQuestionLocked().Type == domain.QuestionOpenResponse {
		threshold = s.timing.PanicThresholdOpen
	}
	if s.timer.Remaining() > threshold {
		return false
	}
	if !s.timer.EnterPanic() {
		return false
	}
	s.panicUsed = true
	s.broadcastLocked(Event{Type: EventPanicMode})
	return true
}

// ToggleLock flips the join lock. Organizer only.
func (s *Session) ToggleLock(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.isOrganizerLocked(connID) {
		return false
	}
	s.locked = !s.locked
	s.broadcastLocked(Event{Type: EventLockChanged, Payload: LockPayload{Locked: s.locked}})
	return true
}

// PlayerList returns the roster snapshot for any member.
func (s *Session) PlayerList(connID string) ([]PlayerInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.isMemberLocked(connID) {
		return nil, false
	}
	return s.playerListLocked(), true
}

// Duration returns the remaining seconds of the running countdown.
func (s *Session) Duration(connID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.isMemberLocked(connID) {
		return 0, false
	}
	return s.timer.Remaining(), true
}
