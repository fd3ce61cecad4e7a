package server_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/goradius/internal/dict"
	"github.com/dantte-lp/goradius/internal/server"
)

// newTestMux builds the admin mux with the builtin dictionary.
func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	return server.NewMux(dict.Builtin(), logger, nil)
}

// postDecode sends a decode request and returns the response recorder.
func postDecode(t *testing.T, mux *http.ServeMux, req server.DecodeRequest) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, server.DecodePath, bytes.NewReader(body)))
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.HealthPath, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestDecodeAttrs(t *testing.T) {
	t.Parallel()

	mux := newTestMux(t)

	// User-Name "bob", NAS-Port 7.
	rec := postDecode(t, mux, server.DecodeRequest{
		Attrs: "0105626f62" + "050600000007",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp server.DecodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if len(resp.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(resp.Pairs))
	}
	if resp.Pairs[0].Name != "User-Name" || resp.Pairs[0].Value != `"bob"` {
		t.Fatalf("first pair = %+v", resp.Pairs[0])
	}
	if resp.Pairs[1].Name != "NAS-Port" || resp.Pairs[1].Value != "7" {
		t.Fatalf("second pair = %+v", resp.Pairs[1])
	}
}

func TestDecodeFullPacket(t *testing.T) {
	t.Parallel()

	mux := newTestMux(t)

	// Access-Request, id 1, zero authenticator, User-Name "al".
	packet := "01010018" + "00000000000000000000000000000000" + "0104616c"

	rec := postDecode(t, mux, server.DecodeRequest{Packet: packet})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp server.DecodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Code != "Access-Request" {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.ID == nil || *resp.ID != 1 {
		t.Errorf("id = %v, want 1", resp.ID)
	}
	if len(resp.Pairs) != 1 || resp.Pairs[0].Name != "User-Name" {
		t.Fatalf("pairs = %+v", resp.Pairs)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	mux := newTestMux(t)

	tests := []struct {
		name string
		req  server.DecodeRequest
	}{
		{"bad hex", server.DecodeRequest{Attrs: "zz"}},
		{"truncated packet", server.DecodeRequest{Packet: "0101"}},
		{"short authenticator", server.DecodeRequest{Attrs: "0104616c", Authenticator: "00ff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := postDecode(t, mux, tt.req)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
		})
	}
}

func TestDecodeMethodNotAllowed(t *testing.T) {
	t.Parallel()

	mux := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, server.DecodePath, nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
