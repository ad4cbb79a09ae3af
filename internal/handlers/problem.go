package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/brainjam-arena/backend/internal/services"
	"github.com/brainjam-arena/backend/internal/store"
	"github.com/brainjam-arena/backend/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	maxArchiveBytes    = 64 << 20
	adminRole          = "admin"
	formFieldArchive   = "archive"
)

// ProblemHandler provides HTTP handlers for problem authoring.
type ProblemHandler struct {
	problemService *services.ProblemService
	userService    *services.UserService
}

// NewProblemHandler constructs a ProblemHandler.
func NewProblemHandler(problemService *services.ProblemService, userService *services.UserService) *ProblemHandler {
	return &ProblemHandler{
		problemService: problemService,
		userService:    userService,
	}
}

// ProblemRouter registers problem routes on the given router. Writes
// require an authenticated admin.
func ProblemRouter(
	r chi.Router,
	problemService *services.ProblemService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewProblemHandler(problemService, userService)

	admin := func(r chi.Router) chi.Router {
		if authMiddleware != nil {
			return r.With(authMiddleware, handler.requireAdmin)
		}
		return r.With(handler.requireAdmin)
	}

	r.Get("/", handler.ListProblems)
	admin(r).Post("/", handler.CreateProblem)
	r.Route("/{problemID}", func(r chi.Router) {
		r.Get("/", handler.GetProblem)
		admin(r).Put("/", handler.UpdateProblem)
		admin(r).Delete("/", handler.DeleteProblem)
		admin(r).Post("/test-cases", handler.ImportTestCases)
	})
}

// ProblemUpsertRequest is the JSON payload for create and update.
type ProblemUpsertRequest struct {
	Title         string   `json:"title"`
	Statement     string   `json:"statement"`
	Difficulty    string   `json:"difficulty"`
	TimeLimitMs   int64    `json:"timeLimitMs"`
	MemoryLimitKb int64    `json:"memoryLimitKb"`
	Tags          []string `json:"tags"`
}

// ProblemListResponse is the paginated list response payload.
type ProblemListResponse struct {
	Items []types.Problem `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

// TestCaseImportResponse reports how many cases an archive produced.
type TestCaseImportResponse struct {
	ProblemID int `json:"problemId"`
	TestCases int `json:"testCases"`
}

func (h *ProblemHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.problemService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list problems")
		return
	}

	writeJSON(w, http.StatusOK, ProblemListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *ProblemHandler) GetProblem(w http.ResponseWriter, r *http.Request) {
	id, err := parseProblemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	problem, err := h.problemService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch problem")
		return
	}

	writeJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) CreateProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := parseProblemBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.problemService.Create(r.Context(), problem)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create problem")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *ProblemHandler) UpdateProblem(w http.ResponseWriter, r *http.Request) {
	id, err := parseProblemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	problem, err := parseProblemBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	problem.ID = id

	updated, err := h.problemService.Update(r.Context(), problem)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update problem")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ProblemHandler) DeleteProblem(w http.ResponseWriter, r *http.Request) {
	id, err := parseProblemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.problemService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete problem")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportTestCases replaces a problem's test cases from an uploaded
// tar.gz archive.
func (h *ProblemHandler) ImportTestCases(w http.ResponseWriter, r *http.Request) {
	id, err := parseProblemID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	filename, data, err := parseArchiveFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.problemService.ImportTestCaseArchive(r.Context(), id, filename, data)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "problem not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TestCaseImportResponse{ProblemID: id, TestCases: count})
}

func parseProblemID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "problemID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid problem id")
	}
	return id, nil
}

func parseProblemBody(r *http.Request) (types.Problem, error) {
	var req ProblemUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return types.Problem{}, errors.New("invalid request")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return types.Problem{}, errors.New("title is required")
	}
	req.Statement = strings.TrimSpace(req.Statement)
	if req.Statement == "" {
		return types.Problem{}, errors.New("statement is required")
	}
	if req.TimeLimitMs < 0 || req.MemoryLimitKb < 0 {
		return types.Problem{}, errors.New("limits must be non-negative")
	}

	difficulty := types.Difficulty(strings.TrimSpace(req.Difficulty))
	switch difficulty {
	case "", types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
	default:
		return types.Problem{}, errors.New("invalid difficulty")
	}

	return types.Problem{
		Title:         req.Title,
		Statement:     req.Statement,
		Difficulty:    difficulty,
		TimeLimitMs:   req.TimeLimitMs,
		MemoryLimitKb: req.MemoryLimitKb,
		Tags:          req.Tags,
	}, nil
}

func parseArchiveFile(form *multipart.Form) (string, []byte, error) {
	if form == nil {
		return "", nil, errors.New("missing form data")
	}

	files := form.File[formFieldArchive]
	if len(files) == 0 {
		return "", nil, errors.New("archive file is required")
	}
	if len(files) > 1 {
		return "", nil, errors.New("only one archive file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read archive file: %w", err)
	}

	data, err := readFileLimited(file, maxArchiveBytes)
	_ = file.Close()
	if err != nil {
		return "", nil, err
	}

	return fileHeader.Filename, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}

func (h *ProblemHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := h.userService.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		if !strings.EqualFold(user.Role, adminRole) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
