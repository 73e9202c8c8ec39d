package app

import "livequiz-service/internal/domain"

// choiceStrategy scores multiple-choice questions: an answer is correct only
// when the participant's selection matches the question's correctness vector
// entrywise, with no partial credit. The first correct answer earns a 2x
// speed bonus unless another correct answer lands inside the grace window.
type choiceStrategy struct{}

func (choiceStrategy) resetCounters(s *Session, q domain.Question) {
	s.choiceTally = make([]int, len(q.Choices))
}

func (choiceStrategy) validate(s *Session, p *Participant) {
	q := s.currentQuestionLocked()
	if !choicesMatch(p.CurrentChoices, q.Choices) {
		return
	}
	s.goodAnswers++
	p.Points += questionPoints(q)
	switch {
	case s.goodAnswers == 1:
		// Tentative first-to-answer: the bonus commits only if nobody
		// else answers correctly before the grace window elapses.
		s.firstToAnswer = p
		contender := p
		s.graceTimer = s.clock.AfterFunc(s.timing.GraceWindow, func() { s.commitFirstBonus(contender) })
	case s.firstToAnswer != nil:
		// A second correct answer inside the window voids the pending
		// bonus; the raw points stand.
		s.cancelGraceLocked()
	}
}

// commitFirstBonus is the grace-window check: if the tentative first
// answerer still holds the reference, the bonus is theirs.
func (s *Session) commitFirstBonus(p *Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.firstToAnswer != p {
		return
	}
	s.awardFirstBonusLocked()
}

func (s *Session) awardFirstBonusLocked() {
	p := s.firstToAnswer
	if p == nil {
		return
	}
	bonus := questionPoints(s.currentQuestionLocked())
	p.Points += bonus
	p.FirstAnswerCount++
	p.IsFirstToAnswer = true
	s.cancelGraceLocked()
	s.toParticipantLocked(p, Event{Type: EventPointsAwarded, Payload: PointsAward{Awarded: bonus, Total: p.Points}})
	s.notifyPlayerStateLocked(p)
}

func (choiceStrategy) finalize(s *Session) {
	s.timer.Stop()
	// A pending bonus can no longer be contested once the question closes:
	// commit it now instead of waiting out the window.
	if s.firstToAnswer != nil {
		s.awardFirstBonusLocked()
	}
	s.state = StateQuestionFinalized
	q := s.currentQuestionLocked()
	correct := correctVector(q)
	for _, p := range s.participants {
		s.toParticipantLocked(p, Event{Type: EventQuestionResult, Payload: PlayerResult{
			Choices:  p.CurrentChoices,
			Correct:  correct,
			Answered: p.HasFinalized,
			IsRight:  choicesMatch(p.CurrentChoices, q.Choices),
			Points:   p.Points,
			WasFirst: p.IsFirstToAnswer,
		}})
	}
	counts := make([]int, len(s.choiceTally))
	copy(counts, s.choiceTally)
	s.toOrganizerLocked(Event{Type: EventQuestionSummary, Payload: QuestionSummary{
		Distribution: counts,
		GoodAnswers:  s.goodAnswers,
		Players:      s.playerListLocked(),
		LastQuestion: s.lastQuestionLocked(),
	}})
	s.emitNextStepLocked()
}

// emitNextStepLocked tells the driver of the game what comes next: advance
// or results. Tester games drive themselves.
func (s *Session) emitNextStepLocked() {
	evtType := EventShowNextButton
	if s.lastQuestionLocked() {
		evtType = EventShowResultButton
	}
	if s.tester {
		if s.lastQuestionLocked() {
			s.goToResultsLocked()
		} else {
			s.scheduleAdvanceLocked()
		}
		return
	}
	if s.random {
		s.broadcastLocked(Event{Type: evtType})
		return
	}
	s.toOrganizerLocked(Event{Type: evtType})
}

// choicesMatch reports whether the selection equals the correctness vector
// entrywise.
func choicesMatch(selected []bool, choices []domain.Choice) bool {
	if len(selected) != len(choices) {
		return false
	}
	for i, c := range choices {
		if selected[i] != c.Correct {
			return false
		}
	}
	return true
}

func correctVector(q domain.Question) []bool {
	vec := make([]bool, len(q.Choices))
	for i, c := range q.Choices {
		vec[i] = c.Correct
	}
	return vec
}
