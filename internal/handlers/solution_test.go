package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brainjam-arena/backend/internal/judge"
	"github.com/brainjam-arena/backend/internal/services"
	"github.com/brainjam-arena/backend/types"
	"github.com/go-chi/chi/v5"
)

type stubGrader struct {
	testResult   services.TestRunResult
	testErr      error
	submitResult services.SubmitResult
	submitErr    error

	lastRequest services.GradeRequest
	lastUserID  *int
	testCalls   int
	submitCalls int
}

func (s *stubGrader) RunTests(ctx context.Context, req services.GradeRequest) (services.TestRunResult, error) {
	s.testCalls++
	s.lastRequest = req
	return s.testResult, s.testErr
}

func (s *stubGrader) SubmitSolution(ctx context.Context, userID *int, req services.GradeRequest) (services.SubmitResult, error) {
	s.submitCalls++
	s.lastRequest = req
	s.lastUserID = userID
	return s.submitResult, s.submitErr
}

func solutionServer(grader Grader, optionalAuth func(http.Handler) http.Handler) *httptest.Server {
	router := chi.NewRouter()
	SolutionRouter(router, grader, optionalAuth)
	return httptest.NewServer(router)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTestSolution(t *testing.T) {
	grader := &stubGrader{
		testResult: services.TestRunResult{
			Status:  "passed",
			Message: "2/2 test cases passed",
			TestResults: []types.TestCaseVerdict{
				{TestCaseID: 1, Status: types.VerdictPassed},
				{TestCaseID: 2, Status: types.VerdictPassed},
			},
		},
	}
	server := solutionServer(grader, nil)
	defer server.Close()

	resp := postJSON(t, server.URL+"/test-solution", `{"problemId":7,"code":"print(1)","language":"python"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope struct {
		Success bool                   `json:"success"`
		Data    services.TestRunResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Error("success = false, want true")
	}
	if envelope.Data.Status != "passed" || envelope.Data.Message != "2/2 test cases passed" {
		t.Errorf("data = %+v", envelope.Data)
	}
	if grader.lastRequest.ProblemID != 7 || grader.lastRequest.Language != "python" {
		t.Errorf("grader request = %+v", grader.lastRequest)
	}
}

func TestSolutionEndpointsRejectIncompleteRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing problem id", `{"code":"x","language":"go"}`},
		{"missing code", `{"problemId":1,"language":"go"}`},
		{"missing language", `{"problemId":1,"code":"x"}`},
		{"blank language", `{"problemId":1,"code":"x","language":"  "}`},
		{"malformed json", `{"problemId":`},
	}

	for _, endpoint := range []string{"/test-solution", "/submit-solution"} {
		for _, tt := range tests {
			t.Run(endpoint+" "+tt.name, func(t *testing.T) {
				grader := &stubGrader{}
				server := solutionServer(grader, nil)
				defer server.Close()

				resp := postJSON(t, server.URL+endpoint, tt.body)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("status = %d, want 400", resp.StatusCode)
				}
				if grader.testCalls+grader.submitCalls != 0 {
					t.Error("grader must not be called for invalid requests")
				}
			})
		}
	}
}

func TestTestSolutionUnsupportedLanguage(t *testing.T) {
	grader := &stubGrader{testErr: judge.ErrUnsupportedLanguage}
	server := solutionServer(grader, nil)
	defer server.Close()

	resp := postJSON(t, server.URL+"/test-solution", `{"problemId":1,"code":"x","language":"cobol"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitSolutionAnonymous(t *testing.T) {
	grader := &stubGrader{
		submitResult: services.SubmitResult{
			SubmissionID: "12",
			Status:       types.StatusAccepted,
			Score:        100,
		},
	}
	server := solutionServer(grader, nil)
	defer server.Close()

	resp := postJSON(t, server.URL+"/submit-solution", `{"problemId":7,"code":"x","language":"go"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if grader.lastUserID != nil {
		t.Errorf("user id = %v, want nil for anonymous request", grader.lastUserID)
	}

	var envelope struct {
		Success bool                  `json:"success"`
		Data    services.SubmitResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SubmissionID != "12" || envelope.Data.Score != 100 {
		t.Errorf("data = %+v", envelope.Data)
	}
}

func TestSubmitSolutionAttributesAuthenticatedUser(t *testing.T) {
	grader := &stubGrader{}

	// Inject the subject the way OptionalAuth does after a valid token.
	injectUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextSubjectKey, 42)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	server := solutionServer(grader, injectUser)
	defer server.Close()

	resp := postJSON(t, server.URL+"/submit-solution", `{"problemId":7,"code":"x","language":"go"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if grader.lastUserID == nil || *grader.lastUserID != 42 {
		t.Errorf("user id = %v, want 42", grader.lastUserID)
	}
}

func TestOptionalAuth(t *testing.T) {
	secret := "test-secret"
	middleware := OptionalAuth(secret)

	var gotSubject any
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = r.Context().Value(contextSubjectKey)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no token passes through anonymously", func(t *testing.T) {
		gotSubject = nil
		req := httptest.NewRequest(http.MethodPost, "/submit-solution", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if gotSubject != nil {
			t.Errorf("subject = %v, want nil", gotSubject)
		}
	})

	t.Run("valid token injects subject", func(t *testing.T) {
		gotSubject = nil
		token, err := issueToken(42, []byte(secret), defaultTokenTTL)
		if err != nil {
			t.Fatalf("issueToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/submit-solution", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if gotSubject != "42" {
			t.Errorf("subject = %v, want 42", gotSubject)
		}
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/submit-solution", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}
