package auth

import (
	"testing"
	"time"

	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour)
	token, err := s.Issue("finn", now)
	require.NoError(t, err)

	user, err := s.Verify(token, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "finn", user)
}

func TestSessionsRejects(t *testing.T) {
	s := NewSessions([]byte("secret"), time.Hour)
	token, err := s.Issue("finn", now)
	require.NoError(t, err)

	_, err = s.Verify(token, now.Add(2*time.Hour))
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	_, err = NewSessions([]byte("other"), time.Hour).Verify(token, now)
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	_, err = s.Verify("", now)
	assert.ErrorIs(t, err, game.ErrUnauthorized)

	_, err = s.Verify("not.a.token", now)
	assert.ErrorIs(t, err, game.ErrUnauthorized)
}

func TestSessionTokenIsNotACatchTicket(t *testing.T) {
	secret := []byte("shared")
	token, err := NewSessions(secret, time.Hour).Issue("finn", now)
	require.NoError(t, err)

	_, err = NewTickets(secret, time.Hour).Verify(token, "finn", now)
	assert.ErrorIs(t, err, game.ErrInvalidTicket)
}

func TestTicketsBindFishToUser(t *testing.T) {
	tickets := NewTickets([]byte("secret"), 10*time.Minute)
	fish := game.Fish{ID: "f1", Species: "Seahorse", Name: "Finn", Color: "#ff8844", Size: game.SizeMedium, Rarity: game.RarityRare}

	token, err := tickets.Issue("finn", fish, now)
	require.NoError(t, err)

	got, err := tickets.Verify(token, "finn", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, fish.ID, got.ID)
	assert.Equal(t, fish.Species, got.Species)
	assert.Equal(t, fish.Rarity, got.Rarity)

	_, err = tickets.Verify(token, "amy", now)
	assert.ErrorIs(t, err, game.ErrInvalidTicket)

	_, err = tickets.Verify(token, "finn", now.Add(11*time.Minute))
	assert.ErrorIs(t, err, game.ErrInvalidTicket)
}

func TestBcrypt(t *testing.T) {
	h := Bcrypt{Cost: 4}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong horse"))
}
