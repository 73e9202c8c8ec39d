package memory

import (
	"context"
	"testing"
	"time"

	"livequiz-service/internal/domain"
)

func TestHistoryRecorderAppends(t *testing.T) {
	recorder := NewHistoryRecorder()

	err := recorder.Record(context.Background(), domain.SessionSummary{
		Title:            "Trivia Night",
		StartTime:        time.Now(),
		ParticipantCount: 3,
		BestScore:        40,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	summaries := recorder.Summaries()
	if len(summaries) != 1 || summaries[0].BestScore != 40 {
		t.Fatalf("expected one summary with best score 40, got %+v", summaries)
	}
}
