package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/lecturehub/internal/auth"
	"github.com/geocoder89/lecturehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type fakeVerifier struct{}

// VerifyAccessToken treats the raw token as "userID:role".
func (fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	for i := 0; i < len(token); i++ {
		if token[i] == ':' {
			return &auth.Claims{UserID: token[:i], Role: token[i+1:]}, nil
		}
	}
	return nil, auth.ErrInvalidToken
}

func newTestEngine() (*gin.Engine, gin.HandlerFunc) {
	gin.SetMode(gin.TestMode)
	return gin.New(), middlewares.NewAuthMiddleware(fakeVerifier{}).RequireAuth()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func doRequest(t *testing.T, r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, w.Body.String())
	}
	return env
}

var errBoom = errors.New("boom")
