package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talgya/hearthstead/internal/engine"
	"github.com/talgya/hearthstead/internal/persistence"
	"github.com/talgya/hearthstead/internal/world"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	w := engine.NewWorld(world.NewGrid(16, 16, 32))
	w.AddSettlement("Eastmere", world.TileCoord{X: 8, Y: 8}.World(32))
	return &Server{
		Eng:      engine.NewEngine(w),
		Store:    &persistence.Store{Dir: t.TempDir()},
		Port:     0,
		AdminKey: "secret",
	}
}

func TestAdminAuth(t *testing.T) {
	s := testServer(t)
	h := s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		method string
		token  string
		admin  string
		want   int
	}{
		{"get rejected", http.MethodGet, "secret", "secret", http.StatusMethodNotAllowed},
		{"no token", http.MethodPost, "", "secret", http.StatusUnauthorized},
		{"wrong token", http.MethodPost, "nope", "secret", http.StatusUnauthorized},
		{"disabled", http.MethodPost, "secret", "", http.StatusForbidden},
		{"accepted", http.MethodPost, "secret", "secret", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s.AdminKey = tc.admin
			req := httptest.NewRequest(tc.method, "/api/v1/save", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestEnqueueShowsInSettlements(t *testing.T) {
	s := testServer(t)
	sid := s.Eng.World.Settlements[0].ID

	body := strings.NewReader(`{"settlement_id": 1, "type": "house"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/enqueue", body)
	rec := httptest.NewRecorder()
	s.handleEnqueue(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("enqueue status = %d: %s", rec.Code, rec.Body)
	}

	var enq struct {
		OK   bool `json:"ok"`
		Tile struct{ X, Y int }
	}
	if err := json.NewDecoder(rec.Body).Decode(&enq); err != nil {
		t.Fatal(err)
	}
	if !enq.OK {
		t.Fatal("enqueue reported not ok")
	}

	rec = httptest.NewRecorder()
	s.handleSettlements(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settlements", nil))
	var out struct {
		Settlements []struct {
			ID     uint64            `json:"id"`
			Queued []json.RawMessage `json:"queued"`
		} `json:"settlements"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Settlements) != 1 || out.Settlements[0].ID != sid {
		t.Fatalf("unexpected settlements payload: %+v", out.Settlements)
	}
	if len(out.Settlements[0].Queued) != 1 {
		t.Errorf("queued = %d entries, want 1", len(out.Settlements[0].Queued))
	}
}

func TestSaveThenLoadHandlers(t *testing.T) {
	s := testServer(t)
	s.Eng.World.Crowns = 77

	rec := httptest.NewRecorder()
	s.handleSave(rec, httptest.NewRequest(http.MethodPost, "/api/v1/save", strings.NewReader(`{"name":"trial"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body)
	}
	var saved struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&saved); err != nil {
		t.Fatal(err)
	}

	// Mutate the live world, then load the snapshot back over it.
	s.Eng.World.Crowns = 0
	body := strings.NewReader(`{"path": "` + saved.Path + `"}`)
	rec = httptest.NewRecorder()
	s.handleLoad(rec, httptest.NewRequest(http.MethodPost, "/api/v1/load", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", rec.Code, rec.Body)
	}
	if s.Eng.World.Crowns != 77 {
		t.Errorf("crowns = %d after load, want 77", s.Eng.World.Crowns)
	}
}

func TestLoadMissingSnapshotIs404(t *testing.T) {
	s := testServer(t)
	body := strings.NewReader(`{"path": "no/such.save"}`)
	rec := httptest.NewRecorder()
	s.handleLoad(rec, httptest.NewRequest(http.MethodPost, "/api/v1/load", body))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("distinct IPs have distinct buckets")
	}
	if rl.RetryAfter("10.0.0.1") <= 0 {
		t.Error("RetryAfter should be positive for a limited IP")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	rl.Allow("10.0.0.3")
	rl.Allow("10.0.0.3")
	if rl.Allow("10.0.0.3") {
		t.Fatal("bucket should be drained")
	}

	// Rewind the bucket's clock half a period: one token should be back.
	rl.mu.Lock()
	rl.clients["10.0.0.3"].last = time.Now().Add(-30 * time.Second)
	rl.mu.Unlock()

	if !rl.Allow("10.0.0.3") {
		t.Error("half a period should refill one token")
	}
	if rl.Allow("10.0.0.3") {
		t.Error("only one token should have refilled")
	}
}

func TestClientKey(t *testing.T) {
	cases := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"peer address", "192.0.2.7:44831", "", "192.0.2.7"},
		{"no port", "192.0.2.7", "", "192.0.2.7"},
		{"forwarded", "10.0.0.1:80", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.9, 198.51.100.2", "203.0.113.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := clientKey(req); got != tc.want {
				t.Errorf("clientKey = %q, want %q", got, tc.want)
			}
		})
	}
}
