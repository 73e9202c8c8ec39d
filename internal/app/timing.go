package app

import (
	"time"

	"livequiz-service/internal/config"
)

// Timing groups the per-session scheduling constants. Values come from the
// YAML config with sane defaults; tests shrink them for speed.
type Timing struct {
	// StartDelay is the pause between a start request and the first question.
	StartDelay time.Duration
	// InterQuestionDelay is the pause between an advance request and the next question.
	InterQuestionDelay time.Duration
	// QuestionDuration is the fallback answer time in seconds for questions
	// that do not carry their own.
	QuestionDuration int
	// TickInterval is the normal countdown cadence (one remaining-second per tick).
	TickInterval time.Duration
	// PanicTickInterval is the accelerated cadence once panic mode is entered.
	PanicTickInterval time.Duration
	// PanicThresholdChoice / PanicThresholdOpen are the max remaining seconds
	// at which panic mode may be requested, per question type.
	PanicThresholdChoice int
	PanicThresholdOpen   int
	// GraceWindow is the delay before a tentative first correct answer is
	// committed as the speed bonus.
	GraceWindow time.Duration
	// TypingIdleWindow is how long after the last keystroke a participant
	// still counts as "typing".
	TypingIdleWindow time.Duration
}

// DefaultTiming returns the production defaults.
func DefaultTiming() Timing {
	return Timing{
		StartDelay:           3 * time.Second,
		InterQuestionDelay:   5 * time.Second,
		QuestionDuration:     30,
		TickInterval:         time.Second,
		PanicTickInterval:    300 * time.Millisecond,
		PanicThresholdChoice: 5,
		PanicThresholdOpen:   20,
		GraceWindow:          500 * time.Millisecond,
		TypingIdleWindow:     1500 * time.Millisecond,
	}
}

// TimingFromConfig overlays configured values onto the defaults.
func TimingFromConfig(cfg config.GameConfig) Timing {
	t := DefaultTiming()
	t.StartDelay = config.TTLDuration(cfg.StartDelay, t.StartDelay)
	t.InterQuestionDelay = config.TTLDuration(cfg.InterQuestionDelay, t.InterQuestionDelay)
	t.TickInterval = config.TTLDuration(cfg.TickInterval, t.TickInterval)
	t.PanicTickInterval = config.TTLDuration(cfg.PanicTickInterval, t.PanicTickInterval)
	t.GraceWindow = config.TTLDuration(cfg.GraceWindow, t.GraceWindow)
	t.TypingIdleWindow = config.TTLDuration(cfg.TypingIdleWindow, t.TypingIdleWindow)
	if cfg.QuestionDuration > 0 {
		t.QuestionDuration = cfg.QuestionDuration
	}
	if cfg.PanicThresholdChoice > 0 {
		t.PanicThresholdChoice = cfg.PanicThresholdChoice
	}
	if cfg.PanicThresholdOpen > 0 {
		t.PanicThresholdOpen = cfg.PanicThresholdOpen
	}
	return t
}
