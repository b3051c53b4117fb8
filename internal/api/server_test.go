package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/scoring"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
)

const testSecret = "test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	pingErr  error
	profiles map[string]*store.Profile
	checkins []store.CheckinRecord
	journals []store.JournalEntry
	phq9     []store.PHQ9Record
	ensured  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*store.Profile)}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) EnsureStudent(_ context.Context, id, name string) error {
	f.ensured = append(f.ensured, id)
	if _, ok := f.profiles[id]; !ok {
		f.profiles[id] = &store.Profile{StudentID: id, Name: name}
	}
	return nil
}

func (f *fakeStore) InsertCheckin(_ context.Context, id string, at time.Time, a scoring.Answers) (*store.CheckinRecord, error) {
	rec := store.CheckinRecord{ID: uuid.New(), StudentID: id, ChatDate: at, Answers: a, Scores: scoring.ScoreCheckin(a)}
	f.checkins = append(f.checkins, rec)
	return &rec, nil
}

func (f *fakeStore) InsertJournalEntry(_ context.Context, id, content string) (*store.JournalEntry, error) {
	e := store.JournalEntry{ID: uuid.New(), Content: content, CreatedAt: time.Now()}
	if id != "" {
		e.StudentID = &id
	}
	f.journals = append(f.journals, e)
	return &e, nil
}

func (f *fakeStore) InsertPHQ9(_ context.Context, id string, answers []int, res scoring.PHQ9Result) (*store.PHQ9Record, error) {
	rec := store.PHQ9Record{ID: uuid.New(), StudentID: id, Answers: answers, Result: res}
	f.phq9 = append(f.phq9, rec)
	return &rec, nil
}

func (f *fakeStore) GetProfile(_ context.Context, id string) (*store.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListProfiles(context.Context) ([]store.Profile, error) {
	var out []store.Profile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) ListJournalEntries(_ context.Context, id string, limit int) ([]store.JournalEntry, error) {
	var out []store.JournalEntry
	for _, e := range f.journals {
		if e.StudentID != nil && *e.StudentID == id && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeBus struct {
	subjects []string
	err      error
}

func (b *fakeBus) Publish(subject string, _ any) error {
	b.subjects = append(b.subjects, subject)
	return b.err
}

type fakeClearer struct {
	known    map[string]bool
	reviewer string
}

func (c *fakeClearer) ClearUrgentFlag(_ context.Context, id, reviewer string) error {
	if !c.known[id] {
		return store.ErrNotFound
	}
	c.reviewer = reviewer
	return nil
}

type testEnv struct {
	srv     *Server
	store   *fakeStore
	bus     *fakeBus
	clearer *fakeClearer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:   newFakeStore(),
		bus:     &fakeBus{},
		clearer: &fakeClearer{known: map[string]bool{}},
	}
	env.srv = NewServer(8760, env.store, env.bus, env.clearer, testSecret, discardLogger())
	return env
}

func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.router.ServeHTTP(w, req)
	return w
}

func reviewerToken(t *testing.T, role string) string {
	t.Helper()
	tok, err := SignToken(testSecret, "counselor@school", role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv()
	w := env.do("GET", "/health", "", "")

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    string
	}{
		{"database up", nil, "ok"},
		{"database down", errors.New("refused"), "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.store.pingErr = tt.pingErr
			w := env.do("GET", "/api/v1/wellcheck/status", "", "")

			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", w.Code)
			}
			var body map[string]string
			json.NewDecoder(w.Body).Decode(&body)
			if body["agent"] != "wellcheck" {
				t.Errorf("expected agent wellcheck, got %q", body["agent"])
			}
			if body["database"] != tt.want {
				t.Errorf("expected database %q, got %q", tt.want, body["database"])
			}
		})
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	env := newTestEnv()
	w := env.do("GET", "/nonexistent", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCreateCheckin(t *testing.T) {
	env := newTestEnv()
	body := `{"student_id":"s1","name":"Ann","stress_responses":[3,3,3],"anxiety_responses":[0,1,0],"depression_responses":[2,0,0,1]}`
	w := env.do("POST", "/api/v1/checkins", body, "")

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec store.CheckinRecord
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Scores.Stress != 9 || rec.Scores.Anxiety != 1 || rec.Scores.Depression != 3 {
		t.Errorf("unexpected raw sums %+v", rec.Scores)
	}
	if len(env.bus.subjects) != 1 || env.bus.subjects[0] != hermes.SubjectCheckinCompleted {
		t.Errorf("expected checkin.completed publish, got %v", env.bus.subjects)
	}
	if env.store.profiles["s1"].Name != "Ann" {
		t.Error("student profile not ensured")
	}
}

func TestCreateCheckin_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"student_id":`},
		{"missing student", `{"stress_responses":[1],"anxiety_responses":[1],"depression_responses":[1]}`},
		{"answer out of range", `{"student_id":"s1","stress_responses":[4],"anxiety_responses":[1],"depression_responses":[1]}`},
		{"empty category", `{"student_id":"s1","stress_responses":[],"anxiety_responses":[1],"depression_responses":[1]}`},
		{"unknown field", `{"student_id":"s1","mood":"ok","stress_responses":[1],"anxiety_responses":[1],"depression_responses":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			w := env.do("POST", "/api/v1/checkins", tt.body, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if len(env.store.checkins) != 0 || len(env.bus.subjects) != 0 {
				t.Error("invalid check-in was stored or published")
			}
		})
	}
}

func TestCreateJournalEntry(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStudent bool
	}{
		{"with student", `{"student_id":"s1","content":"rough day"}`, true},
		{"anonymous", `{"content":"rough day"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			w := env.do("POST", "/api/v1/journal", tt.body, "")
			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
			}
			if len(env.bus.subjects) != 1 || env.bus.subjects[0] != hermes.SubjectJournalCreated {
				t.Errorf("expected journal.created publish, got %v", env.bus.subjects)
			}
			if (env.store.journals[0].StudentID != nil) != tt.wantStudent {
				t.Errorf("student id presence mismatch: %+v", env.store.journals[0])
			}
		})
	}
}

func TestCreateJournalEntry_Blank(t *testing.T) {
	env := newTestEnv()
	w := env.do("POST", "/api/v1/journal", `{"content":"   "}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCreateJournalEntry_PublishFailureStillCreated(t *testing.T) {
	env := newTestEnv()
	env.bus.err = errors.New("nats down")
	w := env.do("POST", "/api/v1/journal", `{"content":"hello"}`, "")
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestSubmitPHQ9(t *testing.T) {
	env := newTestEnv()
	w := env.do("POST", "/api/v1/phq9", `{"student_id":"s1","answers":[2,2,2,1,1,1,1,0,1]}`, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec store.PHQ9Record
	json.NewDecoder(w.Body).Decode(&rec)
	if rec.Result.Score != 11 || rec.Result.Status != "negative" || !rec.Result.NeedsHelp {
		t.Errorf("unexpected result %+v", rec.Result)
	}
	if env.bus.subjects[0] != hermes.SubjectPHQ9Submitted {
		t.Errorf("expected phq9.submitted, got %v", env.bus.subjects)
	}

	w = env.do("POST", "/api/v1/phq9", `{"student_id":"s1","answers":[1,1,1]}`, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short survey, got %d", w.Code)
	}
}

func TestReviewerRoutesRequireAuth(t *testing.T) {
	env := newTestEnv()
	expired, _ := SignToken(testSecret, "x", RoleCounselor, -time.Minute)
	forged, _ := SignToken("other-secret", "x", RoleCounselor, time.Hour)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage", "not.a.jwt", http.StatusUnauthorized},
		{"expired", expired, http.StatusUnauthorized},
		{"wrong secret", forged, http.StatusUnauthorized},
		{"student role", reviewerToken(t, "student"), http.StatusForbidden},
		{"counselor", reviewerToken(t, RoleCounselor), http.StatusOK},
		{"admin", reviewerToken(t, RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", "/api/v1/students", "", tt.token)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestReviewerRoutesWithoutSecret(t *testing.T) {
	env := newTestEnv()
	env.srv = NewServer(8760, env.store, env.bus, env.clearer, "", discardLogger())
	tok := reviewerToken(t, RoleAdmin)
	w := env.do("GET", "/api/v1/students", "", tok)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 when auth is unconfigured, got %d", w.Code)
	}
}

func TestListStudentsOrdered(t *testing.T) {
	env := newTestEnv()
	reason := "High-risk keyword detected."
	env.store.profiles["calm"] = &store.Profile{StudentID: "calm", Name: "Ava"}
	env.store.profiles["flagged"] = &store.Profile{StudentID: "flagged", Name: "Zoe", NeedsHelp: true, LastUrgentReason: &reason}
	env.store.profiles["busy"] = &store.Profile{StudentID: "busy", Name: "Max", StressScore: 70}

	w := env.do("GET", "/api/v1/students", "", reviewerToken(t, RoleCounselor))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Students []struct {
			StudentID string `json:"student_id"`
			Status    string `json:"mental_health_status"`
		} `json:"students"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 3 {
		t.Fatalf("expected 3 students, got %d", body.Count)
	}
	want := []string{"flagged", "busy", "calm"}
	for i, id := range want {
		if body.Students[i].StudentID != id {
			t.Errorf("position %d = %s, want %s", i, body.Students[i].StudentID, id)
		}
	}
	if body.Students[0].Status != "Urgent" {
		t.Errorf("expected Urgent first, got %q", body.Students[0].Status)
	}
}

func TestStudentReport(t *testing.T) {
	env := newTestEnv()
	env.store.profiles["s1"] = &store.Profile{StudentID: "s1", Name: "Ann", DepressionScore: 80}
	score, mag := -0.9, 3.0
	sid := "s1"
	env.store.journals = []store.JournalEntry{{ID: uuid.New(), StudentID: &sid, Content: "bad", SentimentScore: &score, SentimentMagnitude: &mag}}
	tok := reviewerToken(t, RoleCounselor)

	w := env.do("GET", "/api/v1/students/s1/report", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "'Severe' level of Depression") {
		t.Errorf("report missing analysis: %s", w.Body.String())
	}

	if w := env.do("GET", "/api/v1/students/ghost/report", "", tok); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown student, got %d", w.Code)
	}
	if w := env.do("GET", "/api/v1/students/s1/report?journal_limit=abc", "", tok); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestClearUrgent(t *testing.T) {
	env := newTestEnv()
	env.clearer.known["s1"] = true
	tok := reviewerToken(t, RoleCounselor)

	w := env.do("POST", "/api/v1/students/s1/clear-urgent", "", tok)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env.clearer.reviewer != "counselor@school" {
		t.Errorf("reviewer not passed through, got %q", env.clearer.reviewer)
	}

	if w := env.do("POST", "/api/v1/students/ghost/clear-urgent", "", tok); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := env.do("POST", "/api/v1/students/s1/clear-urgent", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}
