package sqlite

import (
	"context"
	"fmt"
	"time"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

// CreateEntry saves a journal entry and returns its assigned ID.
func (r *Repository) CreateEntry(ctx context.Context, entry *domain.JournalEntry) (int64, error) {
	const query = `
	INSERT INTO journal_entries (user_id, position_id, emotion, note, timestamp)
	VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, entry.UserID, entry.PositionID, entry.Emotion, entry.Note, utc(entry.Timestamp))
	if err != nil {
		return 0, fmt.Errorf("failed to insert journal entry for user %s: %w", entry.UserID, mapError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for journal entry: %w", err)
	}
	entry.ID = id
	r.logger.Debug(ctx, "Journal entry created", ports.Fields{"entryID": id, "emotion": entry.Emotion})
	return id, nil
}

// FindEntriesByUser retrieves journal entries with timestamps in [from, to), oldest
// first. A zero bound is open.
func (r *Repository) FindEntriesByUser(ctx context.Context, userID string, from, to time.Time) ([]*domain.JournalEntry, error) {
	query := `SELECT id, user_id, position_id, emotion, note, timestamp FROM journal_entries WHERE user_id = ?`
	args := []interface{}{userID}
	if !from.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, utc(from))
	}
	if !to.IsZero() {
		query += ` AND timestamp < ?`
		args = append(args, utc(to))
	}
	query += ` ORDER BY timestamp, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal for user %s: %w", userID, mapError(err))
	}
	defer rows.Close()

	entries := make([]*domain.JournalEntry, 0)
	for rows.Next() {
		e := &domain.JournalEntry{}
		var emotion string
		if err := rows.Scan(&e.ID, &e.UserID, &e.PositionID, &emotion, &e.Note, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Emotion = domain.Emotion(emotion)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return entries, nil
}
