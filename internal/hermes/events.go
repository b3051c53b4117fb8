package hermes

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueGroup is shared by every wellcheck replica.
const QueueGroup = "wellcheck"

// Inbound subjects.
const (
	SubjectCheckinCompleted = "wellcheck.checkin.completed"
	SubjectJournalCreated   = "wellcheck.journal.created"
	SubjectWearableSynced   = "wellcheck.wearable.synced"
	SubjectPHQ9Submitted    = "wellcheck.phq9.submitted"
)

// Outbound subjects.
const (
	SubjectRiskFlagged     = "wellcheck.risk.flagged"
	SubjectRiskCleared     = "wellcheck.risk.cleared"
	SubjectScoresUpdated   = "wellcheck.scores.updated"
	SubjectAgentRegistered = "wellcheck.agent.registered"
)

type CheckinCompleted struct {
	CheckinID string `json:"checkin_id"`
	StudentID string `json:"student_id"`
}

type JournalCreated struct {
	EntryID   string `json:"entry_id"`
	StudentID string `json:"student_id,omitempty"`
}

// WearableSynced either carries an OAuth token for the fitness API or the
// weekly averages computed by the caller.
type WearableSynced struct {
	StudentID     string   `json:"student_id"`
	AccessToken   string   `json:"access_token,omitempty"`
	AvgSleepHours *float64 `json:"avg_sleep_hours,omitempty"`
	AvgStepCount  *float64 `json:"avg_step_count,omitempty"`
}

// Inline reports whether the averages were supplied directly.
func (w WearableSynced) Inline() bool {
	return w.AvgSleepHours != nil && w.AvgStepCount != nil
}

type PHQ9Submitted struct {
	ResultID  string `json:"result_id"`
	StudentID string `json:"student_id"`
}

type RiskFlagged struct {
	StudentID string    `json:"student_id"`
	Reason    string    `json:"reason"`
	Entry     string    `json:"entry"`
	FlaggedAt time.Time `json:"flagged_at"`
}

type RiskCleared struct {
	StudentID string    `json:"student_id"`
	ClearedBy string    `json:"cleared_by,omitempty"`
	ClearedAt time.Time `json:"cleared_at"`
}

type ScoresUpdated struct {
	StudentID       string    `json:"student_id"`
	AnxietyScore    int       `json:"anxiety_score"`
	DepressionScore int       `json:"depression_score"`
	StressScore     int       `json:"stress_score"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AgentRegistered struct {
	Service   string    `json:"service"`
	Port      int       `json:"port"`
	Subjects  []string  `json:"subjects"`
	Timestamp time.Time `json:"timestamp"`
}

// Decode unmarshals an event and checks that it names a student.
func Decode[T interface{ student() string }](data []byte) (T, error) {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, fmt.Errorf("decode event: %w", err)
	}
	if evt.student() == "" {
		return evt, fmt.Errorf("decode event: missing student_id")
	}
	return evt, nil
}

func (e CheckinCompleted) student() string { return e.StudentID }
func (e WearableSynced) student() string   { return e.StudentID }
func (e PHQ9Submitted) student() string    { return e.StudentID }
