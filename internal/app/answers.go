package app

import (
	"livequiz-service/internal/domain"
)

// answerStrategy is the per-question-type scoring engine. Implementations
// are stateless; all state lives on the session. Every method runs with the
// session mutex held.
type answerStrategy interface {
	// validate scores one participant's finalized answer.
	validate(s *Session, p *Participant)
	// finalize ends the question: stop the timer, move to
	// QuestionFinalized and emit the result broadcasts.
	finalize(s *Session)
	// resetCounters reinitializes the strategy's per-question tallies.
	resetCounters(s *Session, q domain.Question)
}

// Multiplier is the closed set of open-response grades. A closed enum keeps
// float equality out of the scoring path.
type Multiplier string

const (
	MultiplierZero Multiplier = "zero"
	MultiplierHalf Multiplier = "half"
	MultiplierFull Multiplier = "full"
)

// ParseMultiplier maps a wire value onto the enum.
func ParseMultiplier(raw string) (Multiplier, bool) {
	switch Multiplier(raw) {
	case MultiplierZero, MultiplierHalf, MultiplierFull:
		return Multiplier(raw), true
	}
	return "", false
}

// Apply computes the awarded points for a grade.
func (m Multiplier) Apply(points int) int {
	switch m {
	case MultiplierFull:
		return points
	case MultiplierHalf:
		return points / 2
	}
	return 0
}

// bucket maps a grade onto its histogram slot (0%, 50%, 100%).
func (m Multiplier) bucket() int {
	switch m {
	case MultiplierHalf:
		return 1
	case MultiplierFull:
		return 2
	}
	return 0
}

// Grade is one evaluator verdict for an open response.
type Grade struct {
	Name       string     `json:"name"`
	Multiplier Multiplier `json:"multiplier"`
}

// ToggleChoice flips one choice of the participant's current selection and
// keeps the live per-choice tally in step, pushing the new distribution to
// the organizer.
func (s *Session) ToggleChoice(connID string, idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion {
		return false
	}
	p := s.participantLocked(connID)
	if p == nil || p.HasFinalized || p.State == ConnDisconnected {
		return false
	}
	q := s.currentQuestionLocked()
	if q.Type != domain.QuestionMultipleChoice || idx < 0 || idx >= len(p.CurrentChoices) {
		return false
	}
	p.CurrentChoices[idx] = !p.CurrentChoices[idx]
	if p.CurrentChoices[idx] {
		s.choiceTally[idx]++
	} else {
		s.choiceTally[idx]--
	}
	p.State = ConnAnswering
	counts := make([]int, len(s.choiceTally))
	copy(counts, s.choiceTally)
	s.toOrganizerLocked(Event{Type: EventChoiceDistribution, Payload: ChoiceDistribution{Counts: counts}})
	s.notifyPlayerStateLocked(p)
	return true
}

// SubmitLongResponse stores a keystroke update of an open response and feeds
// the organizer's "still typing" counter through a per-participant debounce:
// the first edit after idling bumps the counter, and it drops back once the
// participant stays idle for the configured window.
func (s *Session) SubmitLongResponse(connID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion {
		return false
	}
	p := s.participantLocked(connID)
	if p == nil || p.HasFinalized || p.State == ConnDisconnected {
		return false
	}
	if s.currentQuestionLocked().Type != domain.QuestionOpenResponse {
		return false
	}
	p.LongResponse = text
	p.State = ConnAnswering
	if !p.typingActive {
		p.typingActive = true
		s.typingCount++
		s.pushTypingLocked()
	} else if p.typingTimer != nil {
		p.typingTimer.Stop()
	}
	p.typingGen++
	gen := p.typingGen
	part := p
	p.typingTimer = s.clock.AfterFunc(s.timing.TypingIdleWindow, func() { s.typingIdle(part, gen) })
	return true
}

func (s *Session) typingIdle(p *Participant, gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !p.typingActive || p.typingGen != gen {
		return
	}
	p.typingActive = false
	p.typingTimer = nil
	s.typingCount--
	s.pushTypingLocked()
}

func (s *Session) pushTypingLocked() {
	s.toOrganizerLocked(Event{Type: EventTypingCount, Payload: TypingPayload{Typing: s.typingCount}})
}

// FinalizeAnswer flags the participant's answers final, scores them through
// the current strategy and ends the question early once everyone connected
// has finalized.
func (s *Session) FinalizeAnswer(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateAnsweringQuestion {
		return false
	}
	p := s.participantLocked(connID)
	if p == nil || p.HasFinalized || p.State == ConnDisconnected {
		return false
	}
	p.HasFinalized = true
	p.State = ConnFinalized
	s.finishedCount++
	s.strategyLocked().validate(s, p)
	s.notifyPlayerStateLocked(p)
	s.maybeFinalizeLocked()
	return true
}

// EvaluateResponses applies the organizer's grades to a finalized
// open-response question. Each grade awards question points scaled by the
// multiplier and feeds the outcome histogram. Grades outside the closed
// multiplier enum, unknown names and already-graded participants are
// skipped, so a re-submitted evaluation never double-awards.
func (s *Session) EvaluateResponses(connID string, grades []Grade) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateQuestionFinalized || !s.isOrganizerLocked(connID) {
		return false
	}
	q := s.currentQuestionLocked()
	if q.Type != domain.QuestionOpenResponse {
		return false
	}
	for _, g := range grades {
		m, valid := ParseMultiplier(string(g.Multiplier))
		if !valid {
			continue
		}
		p := s.participantByNameLocked(g.Name)
		if p == nil || p.graded {
			continue
		}
		s.applyGradeLocked(p, q, m)
	}
	buckets := make([]int, 3)
	copy(buckets, s.gradeBuckets[:])
	s.toOrganizerLocked(Event{Type: EventPlayerListRefresh, Payload: PlayerListPayload{
		Players: s.playerListLocked(),
		Buckets: buckets,
	}})
	return true
}

func (s *Session) applyGradeLocked(p *Participant, q domain.Question, m Multiplier) {
	awarded := m.Apply(questionPoints(q))
	p.Points += awarded
	p.graded = true
	s.gradeBuckets[m.bucket()]++
	s.toParticipantLocked(p, Event{Type: EventPointsAwarded, Payload: PointsAward{Awarded: awarded, Total: p.Points}})
}
