// Package sqlite is a SQLite implementation of the storage interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/truongvinhkhuong/zalo-webhook-go/internal/storage"
)

// Store persists image message events in a SQLite database.
type Store struct {
	db *sql.DB
}

var _ storage.ImageMessageStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS image_message_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_id TEXT NOT NULL,
			user_id_by_app TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			recipient_id TEXT NOT NULL,
			event_name TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			msg_id TEXT,
			text TEXT,
			attachments TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_image_msg_user ON image_message_events(user_id_by_app)`,
		`CREATE INDEX IF NOT EXISTS idx_image_msg_time ON image_message_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_image_msg_user_time ON image_message_events(user_id_by_app, timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

// SaveImageMessage inserts one image message event.
func (s *Store) SaveImageMessage(ctx context.Context, msg *storage.ImageMessage) error {
	msg.CreatedAt = time.Now()

	attachments, err := json.Marshal(msg.Attachments)
	if err != nil {
		return fmt.Errorf("failed to marshal attachments: %w", err)
	}

	query := `INSERT INTO image_message_events
	          (app_id, user_id_by_app, sender_id, recipient_id, event_name, timestamp, msg_id, text, attachments, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		msg.AppID, msg.UserIDByApp, msg.SenderID, msg.RecipientID,
		msg.EventName, msg.Timestamp, msg.MsgID, msg.Text, string(attachments), msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save image message: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}

// ImageMessagesByUser returns the most recent image messages for a user,
// newest first.
func (s *Store) ImageMessagesByUser(ctx context.Context, userID string, limit int) ([]*storage.ImageMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, app_id, user_id_by_app, sender_id, recipient_id, event_name, timestamp, msg_id, text, attachments, created_at
	          FROM image_message_events
	          WHERE user_id_by_app = ?
	          ORDER BY timestamp DESC
	          LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query image messages: %w", err)
	}
	defer rows.Close()

	var out []*storage.ImageMessage
	for rows.Next() {
		var msg storage.ImageMessage
		var msgID, text, attachments sql.NullString
		if err := rows.Scan(&msg.ID, &msg.AppID, &msg.UserIDByApp, &msg.SenderID, &msg.RecipientID,
			&msg.EventName, &msg.Timestamp, &msgID, &text, &attachments, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan image message: %w", err)
		}
		msg.MsgID = msgID.String
		msg.Text = text.String
		if attachments.Valid && attachments.String != "" {
			if err := json.Unmarshal([]byte(attachments.String), &msg.Attachments); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
			}
		}
		out = append(out, &msg)
	}

	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
