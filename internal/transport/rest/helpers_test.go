package rest

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/heartmarshall/notes-assistant-backend/pkg/ctxutil"
)

const testUser = "user_2abcDEF"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes req through a mux so path values are populated.
func serve(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func authed(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	return req.WithContext(ctxutil.WithUserID(req.Context(), testUser))
}

func anonymous(method, target, body string) *http.Request {
	return httptest.NewRequest(method, target, strings.NewReader(body))
}
