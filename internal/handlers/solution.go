package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/brainjam-arena/backend/internal/judge"
	"github.com/brainjam-arena/backend/internal/services"
	"github.com/go-chi/chi/v5"
)

// Grader runs the two grading modes.
type Grader interface {
	RunTests(ctx context.Context, req services.GradeRequest) (services.TestRunResult, error)
	SubmitSolution(ctx context.Context, userID *int, req services.GradeRequest) (services.SubmitResult, error)
}

// SolutionHandler exposes the grading endpoints.
type SolutionHandler struct {
	grader Grader
}

// NewSolutionHandler constructs a SolutionHandler.
func NewSolutionHandler(grader Grader) *SolutionHandler {
	return &SolutionHandler{grader: grader}
}

// SolutionRouter registers grading routes on the given router. Both
// endpoints accept anonymous requests; a valid token attributes the
// submission to its user.
func SolutionRouter(r chi.Router, grader Grader, optionalAuth func(http.Handler) http.Handler) {
	handler := NewSolutionHandler(grader)

	if optionalAuth != nil {
		r.With(optionalAuth).Post("/test-solution", handler.TestSolution)
		r.With(optionalAuth).Post("/submit-solution", handler.SubmitSolution)
	} else {
		r.Post("/test-solution", handler.TestSolution)
		r.Post("/submit-solution", handler.SubmitSolution)
	}
	r.Get("/languages", handler.Languages)
}

// Languages lists the language names accepted by the grading endpoints.
func (h *SolutionHandler) Languages(w http.ResponseWriter, r *http.Request) {
	languages := judge.SupportedLanguages()
	sort.Strings(languages)
	writeData(w, http.StatusOK, languages)
}

// SolutionRequest is the payload for both grading endpoints.
type SolutionRequest struct {
	ProblemID int    `json:"problemId"`
	Code      string `json:"code"`
	Language  string `json:"language"`
}

// TestSolution grades code against the sample test cases without
// persisting anything.
func (h *SolutionHandler) TestSolution(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSolutionRequest(w, r)
	if !ok {
		return
	}

	result, err := h.grader.RunTests(r.Context(), req)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

// SubmitSolution grades code against the full test case set, records
// the submission, and awards points on first acceptance.
func (h *SolutionHandler) SubmitSolution(w http.ResponseWriter, r *http.Request) {
	req, ok := parseSolutionRequest(w, r)
	if !ok {
		return
	}

	var userID *int
	if id, err := userIDFromContext(r.Context()); err == nil {
		userID = &id
	}

	result, err := h.grader.SubmitSolution(r.Context(), userID, req)
	if err != nil {
		writeGradingError(w, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

func parseSolutionRequest(w http.ResponseWriter, r *http.Request) (services.GradeRequest, bool) {
	var req SolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return services.GradeRequest{}, false
	}

	req.Language = strings.TrimSpace(req.Language)
	if req.ProblemID < 1 || req.Code == "" || req.Language == "" {
		writeError(w, http.StatusBadRequest, "problemId, code and language are required")
		return services.GradeRequest{}, false
	}

	return services.GradeRequest{
		ProblemID: req.ProblemID,
		Code:      req.Code,
		Language:  req.Language,
	}, true
}

func writeGradingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, judge.ErrUnsupportedLanguage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, judge.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "execution service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "failed to grade solution")
	}
}
