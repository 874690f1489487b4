package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/annabel-goldman/aquarium/internal/game"

	"github.com/go-chi/chi/v5"
)

type sessionResponse struct {
	game.SessionResult
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	result, err := s.game.Login(r.Context(), username, in.Password)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	token, err := s.sessions.Issue(result.Username, s.now())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.setSessionCookie(w, token, int(s.sessions.TTL().Seconds()))
	status := http.StatusOK
	if result.IsNewUser {
		status = http.StatusCreated
	}
	writeJSON(w, status, sessionResponse{
		SessionResult: result,
		Token:         token,
		ExpiresIn:     int64(s.sessions.TTL().Seconds()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.State(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Tick(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Feed(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Clean(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemovePoop(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.RemovePoop(r.Context(), username, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddCoins(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("amount")), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a positive integer")
		return
	}
	out, err := s.game.AddCoins(r.Context(), username, amount)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddFish(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	var in game.NewFish
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.AddFish(r.Context(), username, in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleReleaseFish(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ReleaseFish(r.Context(), username, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleApplyAccessory(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	var in struct {
		Slot        string `json:"slot"`
		AccessoryID string `json:"accessoryId"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.ApplyAccessory(r.Context(), username, chi.URLParam(r, "id"), in.Slot, in.AccessoryID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpawns(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Spawns(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fish": out})
}

func (s *Server) handleCatch(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	hints := game.CatchHints{
		Species: strings.TrimSpace(q.Get("species")),
		Size:    game.Size(strings.TrimSpace(q.Get("size"))),
		Rarity:  game.Rarity(strings.TrimSpace(q.Get("rarity"))),
	}
	out, err := s.game.Catch(r.Context(), username, chi.URLParam(r, "spawnID"), hints)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type ticketRequest struct {
	Ticket        string `json:"ticket"`
	ReleaseFishID string `json:"releaseFishId,omitempty"`
}

func (s *Server) handleKeep(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	var in ticketRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Keep(r.Context(), username, in.Ticket)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	var in ticketRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Release(r.Context(), username, in.Ticket)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	var in ticketRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.ReleaseFishID) == "" {
		writeError(w, http.StatusBadRequest, "releaseFishId is required")
		return
	}
	out, err := s.game.Swap(r.Context(), username, in.Ticket, in.ReleaseFishID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleShopItems(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.ShopItems(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Purchase(r.Context(), username, chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOwned(w http.ResponseWriter, r *http.Request) {
	username, ok := withUser(w, r)
	if !ok {
		return
	}
	out, err := s.game.Owned(r.Context(), username)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
