package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performError(err error) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		Error(c, err)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantMsg    string
	}{
		{"auth", NewAuthError("authorization header required"), http.StatusUnauthorized, "authorization header required"},
		{"forbidden", NewForbidden("invalid token"), http.StatusForbidden, "invalid token"},
		{"not found", NewNotFound("project not found"), http.StatusNotFound, "project not found"},
		{"validation", NewValidationError("email already registered"), http.StatusBadRequest, "email already registered"},
		{"upstream", NewUpstreamError("chat provider error", errors.New("connection refused")), http.StatusInternalServerError, "chat provider error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performError(tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, expected %d", w.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body["error"] != tt.wantMsg {
				t.Errorf("error = %q, expected %q", body["error"], tt.wantMsg)
			}
		})
	}
}

func TestError_PlainErrorIsGeneric(t *testing.T) {
	w := performError(errors.New("pq: duplicate key value violates unique constraint"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, expected 500", w.Code)
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "internal server error" {
		t.Errorf("plain errors must not leak details, got %q", body["error"])
	}
}

func TestInternalError_HidesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	appErr := NewInternalError(cause)

	if appErr.Message != "internal server error" {
		t.Errorf("Message = %q, expected generic message", appErr.Message)
	}
	if !errors.Is(appErr, cause) {
		t.Error("underlying cause should be reachable via errors.Is")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := NewUpstreamError("chat provider error", errors.New("timeout"))
	if err.Error() != "chat provider error: timeout" {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := NewNotFound("project not found")
	if bare.Error() != "project not found" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
