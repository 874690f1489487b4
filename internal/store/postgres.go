package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/annabel-goldman/aquarium/internal/game"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres stores each account as one JSONB document in aquarium.accounts.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Create(ctx context.Context, doc game.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO aquarium.accounts (username, doc, created_at, updated_at)
		VALUES ($1, $2::jsonb, now(), now())
	`, doc.Username, string(raw))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", game.ErrAccountExists, doc.Username)
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) FindByUsername(ctx context.Context, username string) (game.Document, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM aquarium.accounts WHERE username = $1`, username).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Document{}, game.ErrAccountNotFound
	}
	if err != nil {
		return game.Document{}, fmt.Errorf("db error: %w", err)
	}
	var doc game.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return game.Document{}, fmt.Errorf("decode account %s: %w", username, err)
	}
	return doc, nil
}

func (p *Postgres) SetFields(ctx context.Context, username string, update game.Update) error {
	args := []any{username}
	expr, args, err := setExpr("doc", update, args)
	if err != nil {
		return err
	}
	return p.update(ctx, expr, "", args)
}

func (p *Postgres) Push(ctx context.Context, username, field string, value any, set game.Update) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	args := []any{username, pathArray(field), string(raw)}
	expr := `jsonb_set(doc, $2::text[], COALESCE(doc #> $2::text[], '[]'::jsonb) || jsonb_build_array($3::jsonb), true)`
	expr, args, err = setExpr(expr, set, args)
	if err != nil {
		return err
	}
	return p.update(ctx, expr, "", args)
}

func (p *Postgres) Pull(ctx context.Context, username, field, id string, set game.Update) (bool, error) {
	args := []any{username, pathArray(field), id}
	expr := `jsonb_set(doc, $2::text[], COALESCE((
		SELECT jsonb_agg(e.value ORDER BY e.ordinality)
		FROM jsonb_array_elements(doc #> $2::text[]) WITH ORDINALITY AS e
		WHERE COALESCE(e.value->>'id', e.value #>> '{}') <> $3
	), '[]'::jsonb), true)`
	expr, args, err := setExpr(expr, set, args)
	if err != nil {
		return false, err
	}
	guard := `AND EXISTS (
		SELECT 1 FROM jsonb_array_elements(doc #> $2::text[]) AS e
		WHERE COALESCE(e.value->>'id', e.value #>> '{}') = $3
	)`
	err = p.update(ctx, expr, guard, args)
	if !errors.Is(err, game.ErrAccountNotFound) {
		return err == nil, err
	}
	// Nothing matched: either the account or the element is missing.
	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM aquarium.accounts WHERE username = $1)`, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return false, game.ErrAccountNotFound
	}
	return false, nil
}

func (p *Postgres) Replace(ctx context.Context, doc game.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	res, err := p.db.ExecContext(ctx, `
		UPDATE aquarium.accounts SET doc = $2::jsonb, updated_at = now() WHERE username = $1
	`, doc.Username, string(raw))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (p *Postgres) Usernames(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT username FROM aquarium.accounts ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (p *Postgres) update(ctx context.Context, expr, guard string, args []any) error {
	query := "UPDATE aquarium.accounts SET doc = " + expr + ", updated_at = now() WHERE username = $1"
	if guard != "" {
		query += " " + guard
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return game.ErrAccountNotFound
	}
	return nil
}

// setExpr wraps base in one jsonb_set per updated field. Paths are applied in
// sorted order so the generated SQL is stable.
func setExpr(base string, update game.Update, args []any) (string, []any, error) {
	paths := make([]string, 0, len(update))
	for path := range update {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	expr := base
	for _, path := range paths {
		raw, err := json.Marshal(update[path])
		if err != nil {
			return "", nil, fmt.Errorf("encode %s: %w", path, err)
		}
		args = append(args, pathArray(path), string(raw))
		expr = fmt.Sprintf("jsonb_set(%s, $%d::text[], $%d::jsonb, true)", expr, len(args)-1, len(args))
	}
	return expr, args, nil
}

// pathArray renders a dotted field path as a Postgres text[] literal.
func pathArray(path string) string {
	return "{" + strings.ReplaceAll(path, ".", ",") + "}"
}
