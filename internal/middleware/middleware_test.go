package middleware

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

func TestHandlePanics(t *testing.T) {
	tests := []struct {
		name    string
		panicky func()
		wantMsg string
	}{
		{name: "error value", panicky: func() { panic(errors.New("disk gone")) }, wantMsg: "disk gone"},
		{name: "string value", panicky: func() { panic("boom") }, wantMsg: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(LoggingMiddleware())
			router.Use(gin.CustomRecovery(HandlePanics()))
			router.GET("/panic", func(c *gin.Context) { tt.panicky() })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want 500", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body["isSuccess"] != false {
				t.Errorf("isSuccess = %v, want false", body["isSuccess"])
			}
			if body["errorMessage"] != tt.wantMsg {
				t.Errorf("errorMessage = %v, want %q", body["errorMessage"], tt.wantMsg)
			}
		})
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusTeapot, "short and stout") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if w.Body.String() != "short and stout" {
		t.Errorf("body = %q", w.Body.String())
	}
}
