// CLAUDE:SUMMARY CRUD for recorded picks: insert, get by id, list by page, delete.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/domselect/dbopen"
	"github.com/hazyhaar/domselect/selector"
)

// Sources of the document a pick was made on.
const (
	SourceHTML    = "html"    // markup supplied by the caller
	SourceHTTP    = "http"    // static fetch
	SourceBrowser = "browser" // Chrome snapshot
)

// DefaultLimit bounds ListPicks when no limit is given.
const DefaultLimit = 50

// Pick is one recorded locator synthesis.
type Pick struct {
	ID        string           `json:"id"`
	PageURL   string           `json:"page_url,omitempty"`
	Target    string           `json:"target"`
	Source    string           `json:"source"`
	Result    selector.Result  `json:"result"`
	Ancestry  []selector.Crumb `json:"ancestry"`
	CreatedAt int64            `json:"created_at"`
}

// InsertPick records p. CreatedAt defaults to now.
func (s *Store) InsertPick(ctx context.Context, p *Pick) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	if p.Source == "" {
		p.Source = SourceHTML
	}
	res, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("store: marshal result: %w", err)
	}
	anc, err := json.Marshal(p.Ancestry)
	if err != nil {
		return fmt.Errorf("store: marshal ancestry: %w", err)
	}

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO picks
				(id, page_url, target, source, primary_loc, strategy, result, ancestry, created_at)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			p.ID, p.PageURL, p.Target, p.Source, p.Result.Primary, p.Result.Strategy.String(),
			string(res), string(anc), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: insert pick: %w", err)
		}
		return nil
	})
}

// GetPick returns the pick with id, or nil when there is none.
func (s *Store) GetPick(ctx context.Context, id string) (*Pick, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, page_url, target, source, result, ancestry, created_at
		FROM picks WHERE id = ?`, id)
	p, err := scanPick(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListPicks returns the most recent picks, newest first. An empty pageURL
// lists every page. limit <= 0 means DefaultLimit.
func (s *Store) ListPicks(ctx context.Context, pageURL string, limit int) ([]*Pick, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if pageURL == "" {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT id, page_url, target, source, result, ancestry, created_at
			FROM picks ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT id, page_url, target, source, result, ancestry, created_at
			FROM picks WHERE page_url = ? ORDER BY created_at DESC, id DESC LIMIT ?`, pageURL, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list picks: %w", err)
	}
	defer rows.Close()

	var out []*Pick
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePick removes a pick. Deleting a missing id is not an error.
func (s *Store) DeletePick(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM picks WHERE id = ?`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPick(sc scanner) (*Pick, error) {
	p := &Pick{}
	var res, anc string
	if err := sc.Scan(&p.ID, &p.PageURL, &p.Target, &p.Source, &res, &anc, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(res), &p.Result); err != nil {
		return nil, fmt.Errorf("store: decode result %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(anc), &p.Ancestry); err != nil {
		return nil, fmt.Errorf("store: decode ancestry %s: %w", p.ID, err)
	}
	return p, nil
}
