package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annabel-goldman/aquarium/internal/api"
	"github.com/annabel-goldman/aquarium/internal/auth"
	"github.com/annabel-goldman/aquarium/internal/config"
	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/annabel-goldman/aquarium/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steadySource struct{}

func (steadySource) Float64() float64 { return 0.5 }
func (steadySource) Intn(int) int     { return 0 }

func newAPI(t *testing.T) *Client {
	t.Helper()
	svc := game.NewService(store.NewMemory(), nil, game.Options{
		Hasher:  auth.Bcrypt{Cost: 4},
		Tickets: auth.NewTickets([]byte("ticket-secret"), 10*time.Minute),
		Sampler: game.NewSampler(steadySource{}),
	})
	srv := api.New(config.APIConfig{LoginPerMinute: 5}, nil, auth.NewSessions([]byte("session-secret"), time.Hour), svc)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/")
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	login, err := c.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)
	assert.True(t, login.IsNewUser)
	require.NotEmpty(t, login.Token)

	me, err := c.Me(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "finn", me)

	state, err := c.State(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(100), state.Coins)

	spawns, err := c.Spawns(ctx, login.Token)
	require.NoError(t, err)
	require.NotEmpty(t, spawns)

	caught, err := c.Catch(ctx, login.Token, spawns[0].ID, game.CatchHints{Species: "Seahorse", Size: game.SizeSmall})
	require.NoError(t, err)
	require.Equal(t, game.OutcomeFish, caught.ResultType)

	kept, err := c.Keep(ctx, login.Token, caught.Ticket)
	require.NoError(t, err)
	assert.Equal(t, "Seahorse", kept.Fish.Species)

	bought, err := c.Buy(ctx, login.Token, "top_hat")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bought.NewCoins)

	dressed, err := c.ApplyAccessory(ctx, login.Token, kept.Fish.ID, "hat", "top_hat")
	require.NoError(t, err)
	assert.Equal(t, "top_hat", dressed.Fish.Accessories.Hat)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	_, err := c.State(ctx, "")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))

	login, err := c.Login(ctx, "finn", "hunter22")
	require.NoError(t, err)

	_, err = c.Buy(ctx, login.Token, "no_such_item")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, game.CodeNotFound, apiErr.Code)
	assert.Contains(t, apiErr.Message, "not found")
	assert.True(t, HasCode(err, game.CodeInvalidTicket, game.CodeNotFound))
	assert.False(t, HasCode(err, game.CodeTankFull))
}

func TestDecodeAPIErrorPlainBody(t *testing.T) {
	err := decodeAPIError(http.StatusBadGateway, []byte("upstream down\n"))
	assert.Equal(t, "upstream down", err.Message)
	assert.Empty(t, err.Code)
	assert.False(t, HasCode(err, ""))
}

func TestSessionFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, SaveSession(NewSession("finn", "abc", time.Hour, time.Now())))
	s, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "finn", s.Username)
	assert.Equal(t, "abc", s.Token)

	require.NoError(t, ClearSession())
	require.NoError(t, ClearSession())
	_, err = LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestExpiredSessionIsIgnored(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	issued := time.Now().Add(-2 * time.Hour)
	require.NoError(t, SaveSession(NewSession("finn", "abc", time.Hour, issued)))
	_, err := LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	assert.False(t, NewSession("finn", "abc", 0, issued).Expired(time.Now()), "no expiry reported")
}

func TestEmptyStateFileReadsAsMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir, err := Dir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFile), nil, 0o600))

	_, err = LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
}
