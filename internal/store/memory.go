package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/annabel-goldman/aquarium/internal/game"
)

// Memory keeps each account as a decoded JSON object so dotted field updates
// behave the same way they do against the JSONB store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

func (m *Memory) Create(ctx context.Context, doc game.Document) error {
	obj, err := toObject(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.Username]; ok {
		return fmt.Errorf("%w: %s", game.ErrAccountExists, doc.Username)
	}
	m.docs[doc.Username] = obj
	return nil
}

func (m *Memory) FindByUsername(ctx context.Context, username string) (game.Document, error) {
	m.mu.RLock()
	obj, ok := m.docs[username]
	var raw []byte
	var err error
	if ok {
		raw, err = json.Marshal(obj)
	}
	m.mu.RUnlock()
	if !ok {
		return game.Document{}, game.ErrAccountNotFound
	}
	if err != nil {
		return game.Document{}, err
	}
	var doc game.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return game.Document{}, fmt.Errorf("decode account %s: %w", username, err)
	}
	return doc, nil
}

func (m *Memory) SetFields(ctx context.Context, username string, update game.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.docs[username]
	if !ok {
		return game.ErrAccountNotFound
	}
	return applySet(obj, update)
}

func (m *Memory) Push(ctx context.Context, username, field string, value any, set game.Update) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.docs[username]
	if !ok {
		return game.ErrAccountNotFound
	}
	arr, _ := getPath(obj, field).([]any)
	setPath(obj, field, append(arr, v))
	return applySet(obj, set)
}

func (m *Memory) Pull(ctx context.Context, username, field, id string, set game.Update) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.docs[username]
	if !ok {
		return false, game.ErrAccountNotFound
	}
	arr, _ := getPath(obj, field).([]any)
	kept := make([]any, 0, len(arr))
	for _, el := range arr {
		if elementID(el) == id {
			continue
		}
		kept = append(kept, el)
	}
	if len(kept) == len(arr) {
		return false, nil
	}
	setPath(obj, field, kept)
	return true, applySet(obj, set)
}

func (m *Memory) Replace(ctx context.Context, doc game.Document) error {
	obj, err := toObject(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.Username]; !ok {
		return game.ErrAccountNotFound
	}
	m.docs[doc.Username] = obj
	return nil
}

func (m *Memory) Usernames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.docs))
	for name := range m.docs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func toObject(doc game.Document) (map[string]any, error) {
	v, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document did not encode as an object")
	}
	return obj, nil
}

// normalize round-trips v through JSON so stored values only hold the generic
// JSON types.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

func applySet(obj map[string]any, update game.Update) error {
	for path, value := range update {
		v, err := normalize(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", path, err)
		}
		setPath(obj, path, v)
	}
	return nil
}

func getPath(obj map[string]any, path string) any {
	parts := strings.Split(path, ".")
	cur := obj
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur[parts[len(parts)-1]]
}

func setPath(obj map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := obj
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

func elementID(el any) string {
	switch v := el.(type) {
	case string:
		return v
	case map[string]any:
		id, _ := v["id"].(string)
		return id
	}
	return ""
}
