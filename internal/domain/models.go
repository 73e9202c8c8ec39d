package domain

import "time"

// QuestionType selects the answering and scoring strategy for a question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpenResponse   QuestionType = "open_response"
)

// Choice is one selectable answer of a multiple-choice question.
type Choice struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a single quiz question. Choices is empty for open-response questions.
type Question struct {
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Points   int          `json:"points"`   // defaults to 1 if zero
	Duration int          `json:"duration"` // answer time in seconds; 0 means the configured default
	Choices  []Choice     `json:"choices,omitempty"`
}

// Quiz is an ordered, immutable sequence of questions. The live game core
// only ever reads it.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// SessionSummary is the record handed to the history collaborator once a
// game reaches its result view.
type SessionSummary struct {
	Title            string    `json:"title"`
	StartTime        time.Time `json:"startTime"`
	ParticipantCount int       `json:"participantCount"`
	BestScore        int       `json:"bestScore"`
}

// ChatMessage is a relayed chat line.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}
