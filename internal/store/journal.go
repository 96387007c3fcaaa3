package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Change is one operation applied by a commit.
type Change struct {
	// Schema names the collection the node belongs to.
	Schema string `json:"schema"`

	// Kind is "save" or "delete".
	Kind string `json:"kind"`

	// NodeID identifies the changed node.
	NodeID string `json:"node_id"`

	// Payload is the JSON encoding of the saved node, empty for deletes.
	Payload string `json:"payload,omitempty"`
}

// Commit is one journaled command with its changes.
type Commit struct {
	Seq     int64    `json:"seq"`
	ID      string   `json:"id"`
	Command string   `json:"command"`
	Changes []Change `json:"changes"`
}

// HistoryFilter selects journal commits. Zero fields match everything.
type HistoryFilter struct {
	// NodeID keeps only commits that changed this node.
	NodeID string

	// Limit keeps only the most recent commits when positive.
	Limit int
}

// MarshalPayload encodes v as compact JSON for Change.Payload.
// HTML escaping is disabled so names read back exactly as written.
func MarshalPayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// Record writes command and its changes as one commit, stamped with the
// sequence number after the highest one in the journal. The write is
// atomic: either the commit and every change are stored or nothing is, and
// a failed Record leaves no gap in the sequence.
func (s *Store) Record(ctx context.Context, command string, changes []Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	defer tx.Rollback()

	commitID := uuid.Must(uuid.NewV7()).String()

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO commits (seq, id, command)
		SELECT COALESCE(MAX(seq), 0) + 1, ?, ? FROM commits
		RETURNING seq
	`, commitID, command).Scan(&seq); err != nil {
		return fmt.Errorf("record commit: %w", err)
	}

	for i, ch := range changes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO changes (commit_seq, position, schema_name, kind, node_id, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`, seq, i, ch.Schema, ch.Kind, ch.NodeID, ch.Payload); err != nil {
			return fmt.Errorf("record change %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record commit: %w", err)
	}
	s.clock.Observe(seq)
	return nil
}

// History returns the commits matching filter, ordered by seq ASC.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) History(ctx context.Context, filter HistoryFilter) ([]Commit, error) {
	query := `SELECT seq, id, command FROM commits`
	var args []any
	if filter.NodeID != "" {
		query += ` WHERE seq IN (SELECT commit_seq FROM changes WHERE node_id = ?)`
		args = append(args, filter.NodeID)
	}
	query += ` ORDER BY seq DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var commits []Commit
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Seq, &c.ID, &c.Command); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	// Selected newest first for LIMIT, returned oldest first.
	slices.Reverse(commits)

	for i := range commits {
		changes, err := s.readChanges(ctx, commits[i].Seq)
		if err != nil {
			return nil, err
		}
		commits[i].Changes = changes
	}

	if commits == nil {
		commits = []Commit{}
	}
	return commits, nil
}

// readChanges returns the changes of one commit in application order.
func (s *Store) readChanges(ctx context.Context, seq int64) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT schema_name, kind, node_id, payload
		FROM changes
		WHERE commit_seq = ?
		ORDER BY position ASC
	`, seq)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var ch Change
		if err := rows.Scan(&ch.Schema, &ch.Kind, &ch.NodeID, &ch.Payload); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changes: %w", err)
	}
	return changes, nil
}
