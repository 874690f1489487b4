package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/annabel-goldman/aquarium/internal/game"
)

// APIError is a non-2xx response from the server. Code is set for domain
// errors and matches the game.Code* constants.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// HasCode reports whether err is an APIError carrying one of codes.
func HasCode(err error, codes ...string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code == "" {
		return false
	}
	for _, code := range codes {
		if apiErr.Code == code {
			return true
		}
	}
	return false
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type LoginResponse struct {
	Username  string `json:"username"`
	IsNewUser bool   `json:"isNewUser"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/api/sessions", "", map[string]any{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context, token string) (string, error) {
	var out struct {
		Username string `json:"username"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/api/sessions/me", token, nil, &out)
	return out.Username, err
}

func (c *Client) State(ctx context.Context, token string) (game.GameStateView, error) {
	var out game.GameStateView
	err := c.jsonRequest(ctx, http.MethodGet, "/api/game", token, nil, &out)
	return out, err
}

func (c *Client) Tick(ctx context.Context, token string) (game.TickResult, error) {
	var out game.TickResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/game/tick", token, nil, &out)
	return out, err
}

func (c *Client) Feed(ctx context.Context, token string) (game.FeedResult, error) {
	var out game.FeedResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/game/feed", token, nil, &out)
	return out, err
}

func (c *Client) Clean(ctx context.Context, token string) (game.CleanResult, error) {
	var out game.CleanResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/game/clean", token, nil, &out)
	return out, err
}

func (c *Client) RemovePoop(ctx context.Context, token, poopID string) (game.CleanResult, error) {
	var out game.CleanResult
	err := c.jsonRequest(ctx, http.MethodDelete, "/api/game/poop/"+url.PathEscape(poopID), token, nil, &out)
	return out, err
}

func (c *Client) AddCoins(ctx context.Context, token string, amount int64) (game.CoinsResult, error) {
	var out game.CoinsResult
	path := "/api/game/coins?amount=" + strconv.FormatInt(amount, 10)
	err := c.jsonRequest(ctx, http.MethodPost, path, token, nil, &out)
	return out, err
}

func (c *Client) AddFish(ctx context.Context, token string, in game.NewFish) (game.FishResult, error) {
	var out game.FishResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/fish", token, in, &out)
	return out, err
}

func (c *Client) ReleaseFish(ctx context.Context, token, fishID string) (game.ReleaseFishResult, error) {
	var out game.ReleaseFishResult
	err := c.jsonRequest(ctx, http.MethodDelete, "/api/fish/"+url.PathEscape(fishID), token, nil, &out)
	return out, err
}

func (c *Client) ApplyAccessory(ctx context.Context, token, fishID, slot, itemID string) (game.FishResult, error) {
	var out game.FishResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/fish/"+url.PathEscape(fishID)+"/accessory", token, map[string]any{
		"slot":        slot,
		"accessoryId": itemID,
	}, &out)
	return out, err
}

func (c *Client) Spawns(ctx context.Context, token string) ([]game.Spawn, error) {
	var out struct {
		Fish []game.Spawn `json:"fish"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/api/fishing/spawn", token, nil, &out)
	return out.Fish, err
}

func (c *Client) Catch(ctx context.Context, token, spawnID string, hints game.CatchHints) (game.CatchResult, error) {
	q := url.Values{}
	if hints.Species != "" {
		q.Set("species", hints.Species)
	}
	if hints.Size != "" {
		q.Set("size", string(hints.Size))
	}
	if hints.Rarity != "" {
		q.Set("rarity", string(hints.Rarity))
	}
	path := "/api/fishing/catch/" + url.PathEscape(spawnID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out game.CatchResult
	err := c.jsonRequest(ctx, http.MethodPost, path, token, nil, &out)
	return out, err
}

func (c *Client) Keep(ctx context.Context, token, ticket string) (game.KeepResult, error) {
	var out game.KeepResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/fishing/keep", token, map[string]any{"ticket": ticket}, &out)
	return out, err
}

func (c *Client) Release(ctx context.Context, token, ticket string) (game.ReleaseResult, error) {
	var out game.ReleaseResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/fishing/release", token, map[string]any{"ticket": ticket}, &out)
	return out, err
}

func (c *Client) Swap(ctx context.Context, token, ticket, releaseFishID string) (game.SwapResult, error) {
	var out game.SwapResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/fishing/swap", token, map[string]any{
		"ticket":        ticket,
		"releaseFishId": releaseFishID,
	}, &out)
	return out, err
}

func (c *Client) ShopItems(ctx context.Context, token string) (game.ShopItemsResult, error) {
	var out game.ShopItemsResult
	err := c.jsonRequest(ctx, http.MethodGet, "/api/shop/items", token, nil, &out)
	return out, err
}

func (c *Client) Buy(ctx context.Context, token, itemID string) (game.PurchaseResult, error) {
	var out game.PurchaseResult
	err := c.jsonRequest(ctx, http.MethodPost, "/api/shop/buy/"+url.PathEscape(itemID), token, nil, &out)
	return out, err
}

func (c *Client) Owned(ctx context.Context, token string) (game.OwnedCosmetics, error) {
	var out game.OwnedCosmetics
	err := c.jsonRequest(ctx, http.MethodGet, "/api/shop/owned", token, nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, token string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return &APIError{Status: status, Code: payload.Code, Message: payload.Error}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(raw))}
}
