// Package api provides the HTTP shell over the world core.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (save/load/queue control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/hearthstead/internal/agents"
	"github.com/talgya/hearthstead/internal/build"
	"github.com/talgya/hearthstead/internal/engine"
	"github.com/talgya/hearthstead/internal/persistence"
	"github.com/talgya/hearthstead/internal/village"
)

// Server serves the world state and the save/load/queue request interface.
type Server struct {
	Eng      *engine.Engine
	Store    *persistence.Store
	Journal  *persistence.Journal
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// Save/load hit disk; keep a lid on them.
	snapshotLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/snapshots", s.handleSnapshots)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Control plane.
	mux.HandleFunc("/api/v1/save", s.adminOnly(RateLimitMiddleware(snapshotLimiter, s.handleSave)))
	mux.HandleFunc("/api/v1/load", s.adminOnly(RateLimitMiddleware(snapshotLimiter, s.handleLoad)))
	mux.HandleFunc("/api/v1/queue/enqueue", s.adminOnly(s.handleEnqueue))
	mux.HandleFunc("/api/v1/queue/decrement", s.adminOnly(s.handleDecrement))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API listening", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no HEARTHSTEAD_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	wo := s.Eng.World
	writeJSON(w, map[string]any{
		"name":        "Hearthstead",
		"tick":        s.Eng.Tick,
		"speed":       wo.Speed,
		"crowns":      wo.Crowns,
		"grid":        wo.Grid.String(),
		"settlements": len(wo.Settlements),
		"structures":  len(wo.Structures),
		"agents":      len(wo.Agents),
		"roads":       len(wo.Roads),
		"pending":     len(wo.Pending),
	})
}

func (s *Server) handleSettlements(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID         uint64            `json:"id"`
		Name       string            `json:"name"`
		Population uint32            `json:"population"`
		Tier       uint8             `json:"tier"`
		Stockpile  village.Stockpile `json:"stockpile"`
		Queued     []build.Placement `json:"queued,omitempty"`
	}

	wo := s.Eng.World
	out := make([]entry, 0, len(wo.Settlements))
	for _, st := range wo.Settlements {
		out = append(out, entry{
			ID:         st.ID,
			Name:       st.Name,
			Population: st.Population,
			Tier:       st.Tier,
			Stockpile:  st.Stockpile,
			Queued:     s.Eng.Queue.Placements(st.ID),
		})
	}
	writeJSON(w, map[string]any{"settlements": out})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID           agents.AgentID `json:"id"`
		SettlementID uint64         `json:"settlement_id"`
		State        string         `json:"state"`
		X            float64        `json:"x"`
		Y            float64        `json:"y"`
	}

	wo := s.Eng.World
	out := make([]entry, 0, len(wo.Agents))
	for _, a := range wo.Agents {
		out = append(out, entry{
			ID:           a.ID,
			SettlementID: a.SettlementID,
			State:        agents.StateName(a.State),
			X:            a.Position.X,
			Y:            a.Position.Y,
		})
	}
	writeJSON(w, map[string]any{"agents": out})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"snapshots": entries})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.Journal == nil {
		writeJSON(w, map[string]any{"events": []engine.Event{}})
		return
	}
	events, err := s.Journal.Recent(50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	json.NewDecoder(r.Body).Decode(&req) // Empty body is fine: default name.

	var path string
	var err error
	s.Eng.Suspend(func() {
		path, err = s.Store.Save(s.Eng.World, req.Name)
		if err == nil {
			s.Eng.World.Record(s.Eng.Tick, "snapshot", "saved "+path)
		}
	})
	if err != nil {
		slog.Warn("save failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "path": path})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "missing path", http.StatusBadRequest)
		return
	}

	var loadErr error
	s.Eng.Suspend(func() {
		wo, err := s.Store.Load(req.Path)
		if err != nil {
			loadErr = err
			return // Live world untouched.
		}
		s.Eng.ReplaceWorld(wo)
		wo.Record(s.Eng.Tick, "snapshot", "loaded "+req.Path)
	})
	if loadErr != nil {
		slog.Warn("load failed", "path", req.Path, "error", loadErr)
		status := http.StatusInternalServerError
		if errors.Is(loadErr, persistence.ErrMissingFile) {
			status = http.StatusNotFound
		} else if errors.Is(loadErr, persistence.ErrCorruptSnapshot) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, loadErr.Error(), status)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

type queueRequest struct {
	SettlementID uint64 `json:"settlement_id"`
	Type         string `json:"type"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	var tileX, tileY int
	var opErr error
	s.Eng.Suspend(func() {
		st, ok := s.Eng.World.SettlementIndex[req.SettlementID]
		if !ok {
			opErr = fmt.Errorf("unknown settlement %d", req.SettlementID)
			return
		}
		tile, err := s.Eng.Queue.Enqueue(st, village.StructureType(req.Type))
		if err != nil {
			opErr = err
			return
		}
		tileX, tileY = tile.X, tile.Y
	})
	if opErr != nil {
		if errors.Is(opErr, build.ErrPlacementUnavailable) {
			// Non-fatal: report it, the request is simply dropped.
			writeJSON(w, map[string]any{"ok": false, "reason": opErr.Error()})
			return
		}
		http.Error(w, opErr.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "tile": map[string]int{"x": tileX, "y": tileY}})
}

func (s *Server) handleDecrement(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	var removed bool
	s.Eng.Suspend(func() {
		removed = s.Eng.Queue.Decrement(req.SettlementID, village.StructureType(req.Type))
	})
	writeJSON(w, map[string]any{"ok": removed})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
