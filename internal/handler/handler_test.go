package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/attendance"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/roster"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing class", fmt.Errorf("%w: class 99", roster.ErrNotFound), http.StatusNotFound},
		{"missing session", fmt.Errorf("%w: session 7", attendance.ErrNotFound), http.StatusNotFound},
		{"no face", faceclient.ErrNoFace, http.StatusUnprocessableEntity},
		{"duplicate email", roster.ErrEmailTaken, http.StatusConflict},
		{"unclassified", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, w := testContext(t)
			writeError(c, tc.err)
			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestWriteErrorKeepsClassDetail(t *testing.T) {
	// An unknown class must read as a class lookup failure, not as an
	// empty-roster mismatch.
	c, w := testContext(t)
	writeError(c, fmt.Errorf("%w: class 99", roster.ErrNotFound))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "class 99") {
		t.Errorf("got %d %q; want 404 naming the class", w.Code, w.Body.String())
	}
}

func TestPathID(t *testing.T) {
	c, _ := testContext(t)
	c.Params = gin.Params{{Key: "id", Value: "15"}}
	if id, ok := pathID(c, "id"); !ok || id != 15 {
		t.Errorf("pathID = %d ok=%v; want 15 true", id, ok)
	}

	c2, w2 := testContext(t)
	c2.Params = gin.Params{{Key: "id", Value: "abc"}}
	if _, ok := pathID(c2, "id"); ok {
		t.Error("non-numeric id must be rejected")
	}
	if w2.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d; want 422", w2.Code)
	}
}

func TestLogoutRequiresToken(t *testing.T) {
	c, w := testContext(t)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h := &Handler{}
	h.Logout(c)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d; want 422 when refresh_token is missing", w.Code)
	}
}
