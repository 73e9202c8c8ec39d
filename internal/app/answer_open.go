package app

import (
	"strings"

	"livequiz-service/internal/domain"
)

// openStrategy handles free-text questions. Correctness is never computed
// automatically: responses are collected and handed to the organizer for
// out-of-band grading, except in tester games where the system grades.
type openStrategy struct{}

func (openStrategy) resetCounters(s *Session, q domain.Question) {
	s.choiceTally = nil
	s.gradeBuckets = [3]int{}
}

func (openStrategy) validate(s *Session, p *Participant) {
	// Nothing to score yet; just retire the typing debounce so the
	// organizer's counter reflects only participants still editing.
	if p.typingActive {
		if p.typingTimer != nil {
			p.typingTimer.Stop()
			p.typingTimer = nil
		}
		p.typingActive = false
		p.typingGen++
		s.typingCount--
		s.pushTypingLocked()
	}
}

func (openStrategy) finalize(s *Session) {
	s.timer.Stop()
	s.state = StateQuestionFinalized
	s.clearTypingLocked(true)

	if s.tester {
		// Tester games self-grade: any non-empty response counts in full.
		q := s.currentQuestionLocked()
		for _, p := range s.participants {
			m := MultiplierZero
			if strings.TrimSpace(p.LongResponse) != "" {
				m = MultiplierFull
			}
			s.applyGradeLocked(p, q, m)
		}
		s.emitNextStepLocked()
		return
	}

	responses := make([]LongResponseView, 0, len(s.participants))
	for _, p := range s.participants {
		responses = append(responses, LongResponseView{Name: p.Name, Response: p.LongResponse})
	}
	s.toOrganizerLocked(Event{Type: EventLongResponses, Payload: responses})
	s.toOrganizerLocked(Event{Type: EventQuestionSummary, Payload: QuestionSummary{
		GoodAnswers:  s.goodAnswers,
		Players:      s.playerListLocked(),
		LastQuestion: s.lastQuestionLocked(),
	}})
	s.emitNextStepLocked()
}

var (
	_ answerStrategy = openStrategy{}
	_ answerStrategy = choiceStrategy{}
)
