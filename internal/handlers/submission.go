package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/brainjam-arena/backend/internal/services"
	"github.com/brainjam-arena/backend/internal/store"
	"github.com/go-chi/chi/v5"
)

// SubmissionHandler provides read access to the submission history.
type SubmissionHandler struct {
	submissionService *services.SubmissionService
}

// NewSubmissionHandler constructs a SubmissionHandler.
func NewSubmissionHandler(submissionService *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// SubmissionRouter registers submission routes on the given router.
func SubmissionRouter(r chi.Router, submissionService *services.SubmissionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSubmissionHandler(submissionService)

	r.Get("/{submissionID}", handler.GetSubmission)
	if authMiddleware != nil {
		r.With(authMiddleware).Get("/", handler.ListMySubmissions)
	} else {
		r.Get("/", handler.ListMySubmissions)
	}
}

func (h *SubmissionHandler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "submissionID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	submission, err := h.submissionService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch submission")
		return
	}

	writeJSON(w, http.StatusOK, submission)
}

func (h *SubmissionHandler) ListMySubmissions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	_, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	submissions, err := h.submissionService.ListByUser(r.Context(), userID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list submissions")
		return
	}

	writeJSON(w, http.StatusOK, submissions)
}
