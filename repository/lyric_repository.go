package repository

import (
	"database/sql"
	"fmt"

	"MusicFlow/db"
	"MusicFlow/model"
)

// LyricRepository defines the interface for lyric line operations.
type LyricRepository interface {
	GetLyricsBySongID(songID string) ([]*model.Lyric, error)
	CreateLyrics(lyrics []*model.Lyric) error
	DeleteLyricsBySongID(songID string) error
}

// mysqlLyricRepository implements LyricRepository for MySQL.
type mysqlLyricRepository struct {
	DB *sql.DB
}

// NewMySQLLyricRepository creates a new instance of mysqlLyricRepository.
func NewMySQLLyricRepository() LyricRepository {
	return &mysqlLyricRepository{DB: db.DB}
}

// GetLyricsBySongID retrieves all lyric lines of a song ordered by timestamp.
func (r *mysqlLyricRepository) GetLyricsBySongID(songID string) ([]*model.Lyric, error) {
	query := `SELECT id, song_id, time, text, language FROM lyric WHERE song_id = ? ORDER BY time, id`
	rows, err := r.DB.Query(query, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyrics for song %s: %w", songID, err)
	}
	defer rows.Close()

	lyrics := make([]*model.Lyric, 0)
	for rows.Next() {
		lyric := &model.Lyric{}
		if err := rows.Scan(&lyric.ID, &lyric.SongID, &lyric.Time, &lyric.Text, &lyric.Language); err != nil {
			return nil, fmt.Errorf("failed to scan lyric in GetLyricsBySongID: %w", err)
		}
		lyrics = append(lyrics, lyric)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetLyricsBySongID: %w", err)
	}

	return lyrics, nil
}

// CreateLyrics inserts all lyric lines of a song in one transaction.
func (r *mysqlLyricRepository) CreateLyrics(lyrics []*model.Lyric) error {
	if len(lyrics) == 0 {
		return nil
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for CreateLyrics: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO lyric (song_id, time, text, language) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateLyrics: %w", err)
	}
	defer stmt.Close()

	for _, lyric := range lyrics {
		if _, err := stmt.Exec(lyric.SongID, lyric.Time, lyric.Text, lyric.Language); err != nil {
			return fmt.Errorf("failed to insert lyric for song %s: %w", lyric.SongID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CreateLyrics: %w", err)
	}
	return nil
}

// DeleteLyricsBySongID removes every lyric line of a song.
// Used by the repair path before regenerating lyrics from the source file.
func (r *mysqlLyricRepository) DeleteLyricsBySongID(songID string) error {
	query := `DELETE FROM lyric WHERE song_id = ?`
	if _, err := r.DB.Exec(query, songID); err != nil {
		return fmt.Errorf("failed to delete lyrics for song %s: %w", songID, err)
	}
	return nil
}
