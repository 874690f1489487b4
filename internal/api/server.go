package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type contextKey string

const userContextKey contextKey = "user"

const sessionCookie = "sid"

// Sessions issues and checks the signed session token carried by the sid
// cookie or an Authorization bearer header.
type Sessions interface {
	Issue(username string, now time.Time) (string, error)
	Verify(token string, now time.Time) (string, error)
	TTL() time.Duration
}

type Server struct {
	cfg        config.APIConfig
	log        *slog.Logger
	sessions   Sessions
	game       *game.Service
	loginLimit *ipLimiter
	now        func() time.Time
	mux        *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, sessions Sessions, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	perMinute := cfg.LoginPerMinute
	if perMinute <= 0 {
		perMinute = 5
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		sessions: sessions,
		game:     gameSvc,
		now:      time.Now,
		mux:      chi.NewRouter(),
	}
	s.loginLimit = newIPLimiter(perMinute, func() time.Time { return s.now() })
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Aquarium Game API", "status": "running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(s.loginLimit.middleware).Post("/sessions", s.handleLogin)
		r.Delete("/sessions", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/sessions/me", s.handleMe)

			r.Get("/game", s.handleState)
			r.Post("/game/tick", s.handleTick)
			r.Post("/game/feed", s.handleFeed)
			r.Post("/game/clean", s.handleClean)
			r.Delete("/game/poop/{id}", s.handleRemovePoop)
			r.Post("/game/coins", s.handleAddCoins)

			r.Post("/fish", s.handleAddFish)
			r.Delete("/fish/{id}", s.handleReleaseFish)
			r.Post("/fish/{id}/accessory", s.handleApplyAccessory)

			r.Get("/fishing/spawn", s.handleSpawns)
			r.Post("/fishing/catch/{spawnID}", s.handleCatch)
			r.Post("/fishing/keep", s.handleKeep)
			r.Post("/fishing/release", s.handleRelease)
			r.Post("/fishing/swap", s.handleSwap)

			r.Get("/shop/items", s.handleShopItems)
			r.Post("/shop/buy/{id}", s.handlePurchase)
			r.Get("/shop/owned", s.handleOwned)
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if c, err := r.Cookie(sessionCookie); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeCodedError(w, http.StatusUnauthorized, game.CodeUnauthorized, "not logged in")
			return
		}
		username, err := s.sessions.Verify(token, s.now())
		if err != nil {
			writeCodedError(w, http.StatusUnauthorized, game.CodeUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (string, error) {
	username, ok := ctx.Value(userContextKey).(string)
	if !ok || username == "" {
		return "", errors.New("missing auth context")
	}
	return username, nil
}

// withUser writes a 401 when the request carries no signed-in username.
func withUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return username, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrUnauthorized), errors.Is(err, game.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyOwned), errors.Is(err, game.ErrDuplicateFish),
		errors.Is(err, game.ErrTankFull), errors.Is(err, game.ErrAccountExists),
		errors.Is(err, game.ErrCatchSettled):
		status = http.StatusConflict
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrCatchOnlyItem),
		errors.Is(err, game.ErrCategoryMismatch), errors.Is(err, game.ErrInvalidSlot),
		errors.Is(err, game.ErrNotOwned), errors.Is(err, game.ErrInvalidFish),
		errors.Is(err, game.ErrInvalidAmount), errors.Is(err, game.ErrInvalidUsername),
		errors.Is(err, game.ErrInvalidPassword), errors.Is(err, game.ErrInvalidTicket):
		status = http.StatusBadRequest
	default:
		s.log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeError(w, status, "internal server error")
		return
	}
	writeCodedError(w, status, game.ErrorCode(err), err.Error())
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeCodedError(w, status, "", message)
}

// writeCodedError adds a stable code clients can branch on instead of the
// message text.
func writeCodedError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]any{"error": strings.TrimSpace(message)}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
