package responseformat

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestWriteResponseDefaultsToJSON(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/commute/directions", nil)

	err := f.WriteResponse(w, req, map[string]string{"status": "ok"}, map[string]string{"Cache-Control": "max-age=60"})
	if err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "max-age=60" {
		t.Errorf("Cache-Control = %q, want max-age=60", got)
	}

	var decoded map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if decoded["status"] != "ok" {
		t.Errorf("decoded status = %q, want ok", decoded["status"])
	}
}

func TestWriteResponseMsgPack(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1?format=msgpack", nil)

	type payload struct {
		Period string `json:"period"`
	}

	if err := f.WriteResponse(w, req, payload{Period: "Morning"}, nil); err != nil {
		t.Fatalf("WriteResponse returned error: %v", err)
	}

	if got := w.Header().Get("Content-Type"); got != "application/x-msgpack" {
		t.Errorf("Content-Type = %q, want application/x-msgpack", got)
	}

	// The encoder uses json tags, so the msgpack map key must be "period".
	var decoded map[string]string
	if err := msgpack.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("response is not valid msgpack: %v", err)
	}
	if decoded["period"] != "Morning" {
		t.Errorf("decoded period = %q, want Morning", decoded["period"])
	}
}

func TestWriteErrorSetsStatusAndPayload(t *testing.T) {
	f := NewFormatter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/commute/heatmap?direction=nope", nil)

	if err := f.WriteError(w, req, 404, "direction not found"); err != nil {
		t.Fatalf("WriteError returned error: %v", err)
	}

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}

	var decoded map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("error payload is not valid JSON: %v", err)
	}
	if decoded["error"] != "direction not found" {
		t.Errorf("error message = %q, want %q", decoded["error"], "direction not found")
	}
}
