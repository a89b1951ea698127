package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/devsplug/scoring-engine/internal/domain"
	"github.com/devsplug/scoring-engine/internal/domain/entities"
)

// userIDHeader carries the authenticated user, set by the platform's
// auth layer in front of this service.
const userIDHeader = "X-User-ID"

func requestUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
	return id, err == nil && id > 0
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

type progressResponse struct {
	AssessmentID    int64 `json:"assessmentId"`
	CurrentQuestion int   `json:"currentQuestion"`
	IsComplete      bool  `json:"isComplete"`
	Credited        bool  `json:"credited"`
	TotalScore      int   `json:"totalScore"`
}

func (h *Handler) handleStartProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	assessmentID, ok := urlID(r, "assessmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assessment id"})
		return
	}

	progress, err := h.progress.StartOrGet(r.Context(), userID, assessmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{
		AssessmentID:    progress.AssessmentID,
		CurrentQuestion: progress.CurrentQuestion,
		IsComplete:      progress.IsComplete,
		Credited:        progress.Credited,
		TotalScore:      progress.TotalScore,
	})
}

func (h *Handler) handleProgressStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	assessmentID, ok := urlID(r, "assessmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assessment id"})
		return
	}

	statuses, err := h.progress.Status(r.Context(), userID, assessmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"questions": statuses})
}

type submitAnswerRequest struct {
	QuestionID int64 `json:"questionId"`
	ChoiceID   int64 `json:"choiceId"`
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	assessmentID, ok := urlID(r, "assessmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assessment id"})
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.progress.SubmitAnswer(r.Context(), userID, assessmentID, req.QuestionID, req.ChoiceID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAssessmentScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	assessmentID, ok := urlID(r, "assessmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assessment id"})
		return
	}

	score, err := h.progress.Score(r.Context(), userID, assessmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"totalScore": score})
}

type reactRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) handleReact(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	submissionID, ok := urlID(r, "submissionID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid submission id"})
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	active, err := h.reactions.React(r.Context(), userID, submissionID, entities.ReactionKind(req.Kind))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or invalid X-User-ID header"})
		return
	}
	assessmentID, ok := urlID(r, "assessmentID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assessment id"})
		return
	}

	submission, err := h.submissions.Create(r.Context(), userID, assessmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":           submission.ID,
		"assessmentId": submission.AssessmentID,
		"submittedAt":  submission.SubmittedAt,
	})
}

func (h *Handler) handleValidateSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, ok := urlID(r, "submissionID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid submission id"})
		return
	}

	granted, err := h.submissions.Validate(r.Context(), submissionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"bonusGranted": granted})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleRank(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "userID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	rank, err := h.leaderboard.RankOf(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRanked) {
			// A valid result, not a failure.
			writeJSON(w, http.StatusOK, map[string]any{"ranked": false})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ranked": true, "rank": rank})
}
