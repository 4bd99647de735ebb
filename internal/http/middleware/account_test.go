package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

const testAccount = "0x00000000000000000000000000000000000000aa"

func TestAccount_NormalizesAndStores(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Account())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = AccountFrom(c)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderAccount, "  0x00000000000000000000000000000000000000AA ")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || seen != testAccount {
		t.Fatalf("status=%d account=%q", w.Code, seen)
	}

	// anonymous passes through
	seen = "unset"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent || seen != "" {
		t.Fatalf("anonymous status=%d account=%q", w.Code, seen)
	}
}

func TestAccount_RejectsMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Account())
	r.GET("/x", func(c *gin.Context) { t.Fatalf("handler must not run") })

	for _, bad := range []string{"alice", "0x1234", "0xzz000000000000000000000000000000000000aa"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderAccount, bad)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: status=%d", bad, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("json: %v", err)
		}
		if body["code"] != "bad_request" {
			t.Fatalf("%q: body=%v", bad, body)
		}
	}
}

const testRequestID = "0x8f5a6c2e0b7d3f41e9a0c6b15d2e7f3a9c4b8d1e6f205a7b3c9d0e4f1a2b6c8d"
