// internal/httpserver/server.go
//
// HTTP server wiring for the gemfall backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/variants".
//   - Round endpoints (optional auth): POST /round/new, POST /round/select,
//     GET /round/{id}, GET /round/{id}/ws.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /rounds/mine.
//   - JWT + cookie handling, anonymous session cookie, user CRUD helpers.
//   - Database persistence for rounds and user stats.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Optional auth decorates requests with user context when a valid token is
//     present; routes can still run for guests.
//   - All engine access on a live round goes through its Live.Mu mutex; the
//     engine itself is single-threaded.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvickers/gemfall/internal/daily"
	"github.com/mvickers/gemfall/internal/engine"
	"github.com/mvickers/gemfall/internal/store"
	"github.com/mvickers/gemfall/internal/variant"
)

// Server bundles router, in-memory round store, and DB handle.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
	daily *daily.Store
	hubs  *wsHubs
}

// New constructs a Server, installs middleware, and registers routes.
// db may be nil; persistence then degrades to in-memory rounds only.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db, hubs: newWSHubs()}
	if db != nil {
		s.daily = daily.NewStore(db)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsFromEnv)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"gemfall","endpoints":["/health","POST /round/new","POST /round/select","GET /round/{id}","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Round endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/round/new", s.handleNewRound)
	s.r.With(s.withOptionalAuth()).Post("/round/select", s.handleSelect)
	s.r.Get("/round/{id}", s.handleGetRound)
	s.r.Get("/round/{id}/ws", s.handleRoundWS)

	// Daily Challenge — OPTIONAL AUTH (guests can play; result persisted on finish)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	// Debug: loaded variant presets
	s.r.Get("/debug/variants", func(w http.ResponseWriter, r *http.Request) {
		names := make([]string, 0, variant.Count())
		for _, p := range variant.Presets() {
			names = append(names, p.Name)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"count": variant.Count(), "variants": names})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ ROUNDS -------------------------------------

// newRoundReq/Res payloads for POST /round/new.
type newRoundReq struct {
	Variant string          `json:"variant"` // preset name; ignored when Config set
	Config  json.RawMessage `json:"config"`  // raw variant JSON, sanitized server-side
	Seed    *int64          `json:"seed"`    // optional fixed seed (testing)
}
type newRoundRes struct {
	RoundID string          `json:"roundId"`
	Variant string          `json:"variant"`
	Board   engine.Snapshot `json:"board"`
}

// handleNewRound builds a round from a preset or an inline variant config,
// registers it in the live store, and persists a DB "owner" row for
// history/stats.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var cfg variant.Config
	switch {
	case len(req.Config) > 0:
		cfg = variant.Normalize(req.Config)
	case req.Variant != "":
		p, ok := variant.ByName(req.Variant)
		if !ok {
			http.Error(w, `{"error":"unknown_variant"}`, http.StatusBadRequest)
			return
		}
		cfg = p.Config
	default:
		cfg = variant.ByIndex(0).Config
	}

	seed := randomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	rec := &engine.Recorder{}
	rd, err := engine.NewRound(cfg.Round, seed, rec.Hooks())
	if err != nil {
		log.Error().Err(err).Str("variant", cfg.Name).Msg("new round")
		http.Error(w, `{"error":"round_failed"}`, http.StatusInternalServerError)
		return
	}
	live := &store.Live{
		Round:     rd,
		Rec:       rec,
		OwnerID:   s.ownerID(w, r),
		Variant:   cfg.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(r.Context(), live); err != nil {
		log.Error().Err(err).Msg("save round")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	s.insertRoundRow(r, w, rd.ID, cfg.Name)

	_ = json.NewEncoder(w).Encode(newRoundRes{RoundID: rd.ID, Variant: cfg.Name, Board: rd.Snapshot()})
}

// insertRoundRow persists the owner row; best effort, non-fatal if it fails.
func (s *Server) insertRoundRow(r *http.Request, w http.ResponseWriter, roundID, variantName string) {
	if s.db == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO rounds (id, user_id, variant, status, started_at)
		                     VALUES (?,?,?,?,?)`, roundID, me.ID, variantName, "playing", now)
		if err != nil {
			log.Warn().Err(err).Str("roundId", roundID).Msg("insert user round row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO rounds (id, anonymous_id, variant, status, started_at)
		                     VALUES (?,?,?,?,?)`, roundID, anon, variantName, "playing", now)
		if err != nil {
			log.Warn().Err(err).Str("roundId", roundID).Msg("insert anon round row")
		}
	}
}

// selectReq/Res payloads for POST /round/select.
type selectReq struct {
	RoundID string `json:"roundId"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
}
type selectRes struct {
	Accepted   bool            `json:"accepted"`
	Swapped    bool            `json:"swapped"`
	Reverted   bool            `json:"reverted"`
	HadMatches bool            `json:"hadMatches"`
	Cascades   int             `json:"cascades"`
	ScoreDelta int             `json:"scoreDelta"`
	State      string          `json:"state"`
	Events     []engine.Event  `json:"events"`
	Board      engine.Snapshot `json:"board"`
}

// handleSelect applies a cell selection to a live round, persists progress,
// broadcasts the resulting events to WebSocket subscribers, and (if finished)
// updates user stats and daily results.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	live, err := s.store.Get(r.Context(), req.RoundID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}

	live.Mu.Lock()
	res := live.Round.Select(req.Row, req.Col)
	events := live.Rec.Drain()
	snap := live.Round.Snapshot()
	sess := live.Round.Session()
	live.Mu.Unlock()

	out := selectRes{
		Accepted:   res.Accepted,
		Swapped:    res.Swapped,
		Reverted:   res.Reverted,
		HadMatches: res.HadMatches,
		Cascades:   res.Cascades,
		ScoreDelta: res.ScoreDelta,
		State:      res.Outcome.String(),
		Events:     events,
		Board:      snap,
	}

	if len(events) > 0 {
		s.hubs.broadcast(req.RoundID, wsFrame{Type: "events", RoundID: req.RoundID, Events: events, State: snap.State})
	}

	if res.Swapped {
		s.persistProgress(r.Context(), live, sess, res.Outcome)
	}

	_ = json.NewEncoder(w).Encode(out)
}

// persistProgress mirrors the live round into the rounds table and, on a
// terminal outcome, finishes the row, bumps user stats, and records daily
// results. Best effort throughout.
func (s *Server) persistProgress(ctx context.Context, live *store.Live, sess engine.Session, outcome engine.Outcome) {
	if s.db == nil {
		return
	}
	live.Mu.Lock()
	id := live.Round.ID
	live.Mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Warn().Err(err).Msg("begin progress tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE rounds SET score=?, matches=?, moves_used=moves_used+1 WHERE id=?`,
		sess.Score, sess.Matches, id); err != nil {
		log.Warn().Err(err).Msg("update round progress")
	}

	if outcome != engine.OutcomePlaying {
		status := "lost"
		if outcome == engine.OutcomeWon {
			status = "won"
		}
		if _, err := tx.Exec(`UPDATE rounds SET status=?, finished_at=? WHERE id=?`,
			status, time.Now().UTC().Format(time.RFC3339), id); err != nil {
			log.Warn().Err(err).Msg("finish round")
		}
		if isUserID := !strings.HasPrefix(live.OwnerID, anonPrefix); isUserID && live.OwnerID != "" {
			if err := s.bumpStats(tx, live.OwnerID, outcome == engine.OutcomeWon); err != nil {
				log.Warn().Err(err).Str("user", live.OwnerID).Msg("bump stats")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit progress tx")
		return
	}

	if outcome != engine.OutcomePlaying && live.Daily && s.daily != nil {
		err := s.daily.InsertResult(ctx, daily.Result{
			UserID:       live.OwnerID,
			Date:         live.Date,
			VariantIndex: live.VariantIdx,
			Score:        sess.Score,
			Matches:      sess.Matches,
			MovesUsed:    movesFromSession(live, sess),
		})
		if err != nil {
			log.Warn().Err(err).Msg("insert daily result")
		}
	}
}

// movesFromSession derives moves used from the round's configured budget.
func movesFromSession(live *store.Live, sess engine.Session) int {
	live.Mu.Lock()
	defer live.Mu.Unlock()
	return live.Round.Config().MoveBudget - sess.MovesLeft
}

// handleGetRound returns the current snapshot of a live round.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	live, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	live.Mu.Lock()
	snap := live.Round.Snapshot()
	live.Mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{
		"roundId": id,
		"variant": live.Variant,
		"board":   snap,
	})
}

// ownerID returns the authenticated user ID when present, otherwise a stable
// anonymous cookie ID.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// randomSeed draws a crypto-random non-negative board seed.
func randomSeed() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.BigEndian.Uint64(b[:]) &^ (1 << 63))
}

// ------------------------------- AUTH --------------------------------------

// Request payloads for signup/login.
type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /rounds/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	// Current user (gated)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(me)
	})

	// Stats (gated)
	s.r.With(s.requireAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, err := s.findUserByID(me.ID)
		if err != nil {
			http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           u.ID,
			"roundsPlayed": u.RoundsPlayed,
			"wins":         u.Wins,
			"streak":       u.Streak,
		})
	})

	// Recent rounds (gated)
	s.r.With(s.requireAuth()).Get("/rounds/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		rows, err := s.db.Query(`SELECT id, variant, status, score, matches, moves_used, started_at, COALESCE(finished_at,'')
		                         FROM rounds WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type roundRow struct {
			ID         string `json:"id"`
			Variant    string `json:"variant"`
			Status     string `json:"status"`
			Score      int    `json:"score"`
			Matches    int    `json:"matches"`
			MovesUsed  int    `json:"movesUsed"`
			StartedAt  string `json:"startedAt"`
			FinishedAt string `json:"finishedAt,omitempty"`
		}
		out := []roundRow{}
		for rows.Next() {
			var rr roundRow
			if err := rows.Scan(&rr.ID, &rr.Variant, &rr.Status, &rr.Score, &rr.Matches, &rr.MovesUsed, &rr.StartedAt, &rr.FinishedAt); err == nil {
				out = append(out, rr)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	// Attach any anonymous rounds to the new account
	s.claimAnonRounds(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonRounds(s.ensureAnonID(w, r), u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonCookieName = "gemfall_anon"

// anonPrefix marks generated anonymous IDs so stats updates can tell them
// apart from user IDs.
const anonPrefix = "anon_"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest rounds with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := anonPrefix + genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimAnonRounds transfers any anonymous rounds to a user account after auth.
func (s *Server) claimAnonRounds(anonID, userID string) {
	if anonID == "" || userID == "" || s.db == nil {
		return
	}
	if _, err := s.db.Exec(`UPDATE rounds SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon rounds")
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	RoundsPlayed int
	Wins         int
	Streak       int
}

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// findUserByUsername/ID load a user row or return an error if missing.
func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, rounds_played, wins, streak
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	if s.db == nil {
		return nil, sql.ErrNoRows
	}
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, rounds_played, wins, streak
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.RoundsPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace; adjust here if you want stricter rules.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// bumpStats increments rounds played; updates wins and streak based on result (within tx).
func (s *Server) bumpStats(tx *sql.Tx, userID string, won bool) error {
	var rp, wins, streak int
	row := tx.QueryRow(`SELECT rounds_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&rp, &wins, &streak); err != nil {
		return err
	}
	rp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.Exec(`UPDATE users SET rounds_played=?, wins=?, streak=? WHERE id=?`, rp, wins, streak, userID)
	return err
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "gemfall_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "gemfall_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "gemfall_token")); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
