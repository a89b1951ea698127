package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/devsplug/scoring-engine/internal/delivery/rest"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
	"github.com/devsplug/scoring-engine/internal/infra/memory"
	"github.com/devsplug/scoring-engine/internal/service"
)

type fixture struct {
	server       *httptest.Server
	store        *memory.Store
	userID       int64
	assessmentID int64
	questionIDs  []int64
	choiceIDs    []int64 // correct choice per question
	submissionID int64
}

func newFixture(t *testing.T, opts ...rest.HandlerOption) *fixture {
	t.Helper()
	store := memory.NewStore()

	user := entities.NewUser("alice")
	user.Title = "novice"
	userID := store.AddUser(user)

	assessment := &entities.Assessment{
		Title: "Go basics",
		Slug:  "go-basics",
		Level: "easy",
		Questions: []entities.Question{
			{
				Position: 0,
				Value:    5,
				Choices: []entities.Choice{
					{Content: "right", IsCorrect: true},
					{Content: "wrong", IsCorrect: false},
				},
			},
			{
				Position: 1,
				Value:    10,
				Choices: []entities.Choice{
					{Content: "right", IsCorrect: true},
					{Content: "wrong", IsCorrect: false},
				},
			},
		},
	}
	store.AddAssessment(assessment)
	submissionID := store.AddSubmission(&entities.Submission{UserID: userID, AssessmentID: assessment.ID})

	titles, err := service.NewTitleTable([]service.TitleBand{{MinScore: 0, Label: "novice"}})
	if err != nil {
		t.Fatalf("title table: %v", err)
	}
	logger := zap.NewNop()
	ledger := service.NewLedger(store, store, titles, logger)

	progress := service.NewProgressService(store, memory.AssessmentRepo{Store: store}, store, store, ledger)
	reactions := service.NewReactionService(store, memory.SubmissionRepo{Store: store}, memory.ReactionRepo{Store: store}, ledger, service.ReactionDeltas{Like: 10, Dislike: 2})
	submissions := service.NewSubmissionService(store, memory.SubmissionRepo{Store: store}, ledger, 20)
	leaderboard := service.NewLeaderboardService(store, nil, logger, 20, 100)

	handler := rest.NewHandler(progress, reactions, submissions, leaderboard, logger, opts...)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	f := &fixture{
		server:       server,
		store:        store,
		userID:       userID,
		assessmentID: assessment.ID,
		submissionID: submissionID,
	}
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		f.questionIDs = append(f.questionIDs, q.ID)
		for j := range q.Choices {
			if q.Choices[j].IsCorrect {
				f.choiceIDs = append(f.choiceIDs, q.Choices[j].ID)
			}
		}
	}
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-User-ID", fmt.Sprint(f.userID))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, decoded
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected healthy, got %d %v", resp.StatusCode, body)
	}
}

func TestAnswerFlowOverHTTP(t *testing.T) {
	f := newFixture(t)
	base := fmt.Sprintf("/api/v1/assessments/%d", f.assessmentID)

	resp, body := f.do(t, http.MethodPost, base+"/progress", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start progress: %d %v", resp.StatusCode, body)
	}

	answer := fmt.Sprintf(`{"questionId":%d,"choiceId":%d}`, f.questionIDs[0], f.choiceIDs[0])
	resp, body = f.do(t, http.MethodPost, base+"/answers", answer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit answer: %d %v", resp.StatusCode, body)
	}
	if body["isCorrect"] != true || body["pointsAwarded"] != float64(5) {
		t.Fatalf("expected a correct 5-point answer, got %v", body)
	}

	// Submitting the same question again maps to 409.
	resp, _ = f.do(t, http.MethodPost, base+"/answers", answer)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate answer, got %d", resp.StatusCode)
	}

	answer = fmt.Sprintf(`{"questionId":%d,"choiceId":%d}`, f.questionIDs[1], f.choiceIDs[1])
	resp, body = f.do(t, http.MethodPost, base+"/answers", answer)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit final answer: %d %v", resp.StatusCode, body)
	}
	if body["completed"] != true || body["credited"] != true {
		t.Fatalf("expected completion with credit, got %v", body)
	}

	resp, body = f.do(t, http.MethodGet, base+"/score", "")
	if resp.StatusCode != http.StatusOK || body["totalScore"] != float64(15) {
		t.Fatalf("expected frozen total 15, got %d %v", resp.StatusCode, body)
	}
}

func TestSubmitAnswerRequiresUserHeader(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/assessments/%d/answers", f.server.URL, f.assessmentID),
		strings.NewReader(`{"questionId":1,"choiceId":1}`))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without X-User-ID, got %d", resp.StatusCode)
	}
}

func TestReactionAndValidationOverHTTP(t *testing.T) {
	f := newFixture(t)
	base := fmt.Sprintf("/api/v1/submissions/%d", f.submissionID)

	resp, body := f.do(t, http.MethodPost, base+"/reactions", `{"kind":"like"}`)
	if resp.StatusCode != http.StatusOK || body["active"] != true {
		t.Fatalf("expected an active like, got %d %v", resp.StatusCode, body)
	}

	resp, _ = f.do(t, http.MethodPost, base+"/reactions", `{"kind":"meh"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown kind, got %d", resp.StatusCode)
	}

	resp, body = f.do(t, http.MethodPost, base+"/validate", "")
	if resp.StatusCode != http.StatusOK || body["bonusGranted"] != true {
		t.Fatalf("expected the validation bonus granted, got %d %v", resp.StatusCode, body)
	}

	resp, _ = f.do(t, http.MethodPost, "/api/v1/submissions/9999/reactions", `{"kind":"like"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown submission, got %d", resp.StatusCode)
	}
}

func TestCreateSubmissionOverHTTP(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/assessments/%d/submissions", f.assessmentID), "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create submission: %d %v", resp.StatusCode, body)
	}
	id, ok := body["id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("expected a positive submission id, got %v", body)
	}

	// The created submission is immediately reactable.
	resp, body = f.do(t, http.MethodPost,
		fmt.Sprintf("/api/v1/submissions/%d/reactions", int64(id)), `{"kind":"like"}`)
	if resp.StatusCode != http.StatusOK || body["active"] != true {
		t.Fatalf("expected an active like on the new submission, got %d %v", resp.StatusCode, body)
	}
}

func TestLeaderboardStreamOutlivesRequestTimeout(t *testing.T) {
	f := newFixture(t,
		rest.WithRequestTimeout(50*time.Millisecond),
		rest.WithStreamInterval(20*time.Millisecond),
	)

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/leaderboard/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frame struct {
		Entries []entities.RankedUser `json:"entries"`
	}
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if len(frame.Entries) != 1 || frame.Entries[0].Score != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", frame.Entries)
	}

	if _, err := f.store.ApplyScoreDelta(context.Background(), f.userID, 42); err != nil {
		t.Fatalf("apply delta: %v", err)
	}

	// Keep reading well past the request timeout: the stream must stay
	// open and pick up the new score along the way.
	sawUpdate := false
	until := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(until) {
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("stream dropped before the client disconnected: %v", err)
		}
		if len(frame.Entries) == 1 && frame.Entries[0].Score == 42 {
			sawUpdate = true
		}
	}
	if !sawUpdate {
		t.Fatalf("expected the stream to deliver the updated score")
	}
}

func TestLeaderboardAndRankOverHTTP(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/v1/leaderboard", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: %d %v", resp.StatusCode, body)
	}
	entries, ok := body["entries"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected a single ranked user, got %v", body["entries"])
	}

	resp, body = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/rank", f.userID), "")
	if resp.StatusCode != http.StatusOK || body["ranked"] != true || body["rank"] != float64(1) {
		t.Fatalf("expected rank 1, got %d %v", resp.StatusCode, body)
	}

	// Unknown users read as unranked, not as an error.
	resp, body = f.do(t, http.MethodGet, "/api/v1/users/9999/rank", "")
	if resp.StatusCode != http.StatusOK || body["ranked"] != false {
		t.Fatalf("expected an unranked result, got %d %v", resp.StatusCode, body)
	}
}
