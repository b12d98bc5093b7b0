// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start the daily round (creates or reuses it)
//   - GET  /daily/today       → describe today's challenge without starting it
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// Play itself goes through the regular /round/select endpoint; the finish
// path persists the result because the live round is flagged Daily.
// Deterministic variant and board seed selection is based on date + salt.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mvickers/gemfall/internal/daily"
	"github.com/mvickers/gemfall/internal/engine"
	"github.com/mvickers/gemfall/internal/store"
	"github.com/mvickers/gemfall/internal/variant"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	salt     string
	sessions map[string]string // userID|date → round ID
	mu       sync.Mutex        // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		salt:     getEnv("DAILY_SALT", "local_dev_salt"),
		sessions: make(map[string]string),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Get("/today", dd.handleToday)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// todaysChallenge returns the date key, preset index, preset, and board seed
// for the current UTC date.
func (d *dailyServer) todaysChallenge() (date string, idx int, p variant.Preset, seed int64) {
	now := time.Now().UTC()
	date = daily.DateKey(now)
	idx = daily.VariantIndex(now, d.salt, variant.Count())
	p = variant.ByIndex(idx)
	seed = daily.Seed(now, d.salt)
	return
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	RoundID string           `json:"roundId"`
	Date    string           `json:"date"`
	Variant string           `json:"variant"`
	Played  bool             `json:"played"`
	Board   *engine.Snapshot `json:"board,omitempty"`
}

// handleNew creates or reuses the daily round for the current date.
// - If user already has a DB row for today → return Played=true.
// - Otherwise create/reuse a live round and return its ID and board.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	date, idx, p, seed := d.todaysChallenge()

	// Check if already played (persisted in DB).
	if d.srv.daily != nil {
		if played, err := d.srv.daily.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
			_ = json.NewEncoder(w).Encode(dailyNewRes{Date: date, Variant: p.Name, Played: true})
			return
		}
	}

	// Reuse the in-flight round if one exists.
	key := uid + "|" + date
	d.mu.Lock()
	if roundID, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		if live, err := d.srv.store.Get(r.Context(), roundID); err == nil {
			live.Mu.Lock()
			snap := live.Round.Snapshot()
			live.Mu.Unlock()
			_ = json.NewEncoder(w).Encode(dailyNewRes{RoundID: roundID, Date: date, Variant: p.Name, Board: &snap})
			return
		}
	} else {
		d.mu.Unlock()
	}

	rec := &engine.Recorder{}
	rd, err := engine.NewRound(p.Config.Round, seed, rec.Hooks())
	if err != nil {
		log.Error().Err(err).Str("variant", p.Name).Msg("new daily round")
		http.Error(w, `{"error":"round_failed"}`, http.StatusInternalServerError)
		return
	}
	live := &store.Live{
		Round:      rd,
		Rec:        rec,
		OwnerID:    uid,
		Variant:    p.Name,
		Daily:      true,
		Date:       date,
		VariantIdx: idx,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.srv.store.Save(r.Context(), live); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	d.mu.Lock()
	d.sessions[key] = rd.ID
	d.mu.Unlock()

	d.srv.insertRoundRow(r, w, rd.ID, "daily:"+p.Name)

	snap := rd.Snapshot()
	_ = json.NewEncoder(w).Encode(dailyNewRes{RoundID: rd.ID, Date: date, Variant: p.Name, Board: &snap})
}

// -----------------------------------------------------------------------------
// /daily/today

// handleToday describes today's challenge without creating a round.
// The seed stays server-side so clients cannot precompute boards.
func (d *dailyServer) handleToday(w http.ResponseWriter, r *http.Request) {
	date, _, p, _ := d.todaysChallenge()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"date":          date,
		"variant":       p.Name,
		"gridSize":      p.Config.Round.GridSize,
		"targetMatches": p.Config.Round.TargetMatches,
		"moveBudget":    p.Config.Round.MoveBudget,
	})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if d.srv.daily == nil {
		http.Error(w, `{"error":"no_database"}`, http.StatusServiceUnavailable)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date, _, _, _ = d.todaysChallenge()
	}
	rows, err := d.srv.daily.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
