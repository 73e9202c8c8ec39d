package app

import "livequiz-service/internal/domain"

// EventType names an outbound event on the dispatch boundary.
type EventType string

const (
	EventTimerRefresh         EventType = "refreshTimer"
	EventTimerPauseState      EventType = "timerPauseState"
	EventPanicMode            EventType = "panicMode"
	EventGameStarting         EventType = "gameStarting"
	EventLockChanged          EventType = "lockChanged"
	EventLoadNextQuestion     EventType = "loadNextQuestion"
	EventShowNextButton       EventType = "showNextQuestionButton"
	EventShowResultButton     EventType = "showResultButton"
	EventFinalResults         EventType = "finalResults"
	EventPlayerStateChanged   EventType = "playerStateChanged"
	EventPlayerListRefresh    EventType = "refreshPlayerList"
	EventPlayerListActualized EventType = "playerListActualized"
	EventChoiceDistribution   EventType = "choiceDistribution"
	EventTypingCount          EventType = "typingCount"
	EventQuestionResult       EventType = "questionResult"
	EventQuestionSummary      EventType = "questionSummary"
	EventLongResponses        EventType = "longResponses"
	EventPointsAwarded        EventType = "pointsAwarded"
	EventOrganizerLeft        EventType = "organizerDisconnected"
	EventBanned               EventType = "hasBeenBanned"
	EventMuteChanged          EventType = "muteChanged"
	EventChatMessage          EventType = "newChatMessage"
)

// Event is a fire-and-forget outbound message addressed to one connection.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// Broadcaster pushes events to connections. The transport layer implements
// it over the live connection map; tests use a recording fake. Send must
// never block the caller.
type Broadcaster interface {
	Send(connID string, evt Event)
	// CloseConn force-disconnects a connection (ban, session teardown).
	CloseConn(connID string)
}

// PlayerInfo is the organizer-facing snapshot of one participant.
type PlayerInfo struct {
	Name         string `json:"name"`
	Points       int    `json:"points"`
	FirstAnswers int    `json:"firstAnswers"`
	State        string `json:"state"`
	Muted        bool   `json:"muted"`
	Finalized    bool   `json:"finalized"`
}

// QuestionView is the participant-facing projection of the current question.
// Choice correctness never leaves the server before finalization.
type QuestionView struct {
	Index    int                 `json:"index"`
	Total    int                 `json:"total"`
	Text     string              `json:"text"`
	Type     domain.QuestionType `json:"questionType"`
	Points   int                 `json:"points"`
	Duration int                 `json:"duration"`
	Choices  []string            `json:"choices,omitempty"`
}

// TimerPayload carries the remaining whole seconds of the countdown.
type TimerPayload struct {
	Remaining int `json:"remaining"`
}

// PauseState reports the countdown's pause flag after a toggle.
type PauseState struct {
	Paused bool `json:"paused"`
}

// TypingPayload is the live count of participants still editing an open response.
type TypingPayload struct {
	Typing int `json:"typing"`
}

// ChoiceDistribution is the organizer's live per-choice selection tally.
type ChoiceDistribution struct {
	Counts []int `json:"counts"`
}

// PlayerResult is the personalized outcome sent to each participant on finalization.
type PlayerResult struct {
	Choices  []bool `json:"choices,omitempty"`
	Correct  []bool `json:"correct,omitempty"`
	Answered bool   `json:"answered"`
	IsRight  bool   `json:"isRight"`
	Points   int    `json:"points"`
	WasFirst bool   `json:"wasFirst"`
}

// QuestionSummary is the organizer's aggregate view of a finalized question.
type QuestionSummary struct {
	Distribution []int        `json:"distribution,omitempty"`
	GoodAnswers  int          `json:"goodAnswers"`
	Players      []PlayerInfo `json:"players"`
	LastQuestion bool         `json:"lastQuestion"`
}

// LongResponseView is one collected open response awaiting evaluation.
type LongResponseView struct {
	Name     string `json:"name"`
	Response string `json:"response"`
}

// PointsAward notifies a participant of points granted out-of-band
// (first-answer bonus, open-response grading).
type PointsAward struct {
	Awarded int `json:"awarded"`
	Total   int `json:"total"`
}

// FinalStanding is one row of the end-of-game scoreboard.
type FinalStanding struct {
	Name         string `json:"name"`
	Points       int    `json:"points"`
	FirstAnswers int    `json:"firstAnswers"`
}

// PlayerListPayload refreshes the organizer's roster, optionally with the
// open-response grade histogram (0%/50%/100% buckets).
type PlayerListPayload struct {
	Players []PlayerInfo `json:"players"`
	Buckets []int        `json:"buckets,omitempty"`
}

// MutePayload reports a participant's new mute flag.
type MutePayload struct {
	Name  string `json:"name"`
	Muted bool   `json:"muted"`
}

// LockPayload reports the session's new lock flag.
type LockPayload struct {
	Locked bool `json:"locked"`
}
