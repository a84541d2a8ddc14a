package repository

import (
	"database/sql"
	"fmt"

	"MusicFlow/db"
	"MusicFlow/logger"
	"MusicFlow/model"
)

// songColumns is the column list shared by every song query.
const songColumns = `id, file_name, file_path, file_url, title, artist, album, year, duration, bitrate, samplerate, language, genre, track, disc, comment`

// SongRepository defines the interface for song metadata operations.
type SongRepository interface {
	GetSongByID(id string) (*model.Song, error)
	GetSongByTitleArtist(title, artist string) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	CreateSong(song *model.Song) error
	UpdateSongLocation(id, fileName, filePath, fileURL string) (int64, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	DB *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository() SongRepository {
	return &mysqlSongRepository{DB: db.DB}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.FileName, &song.FilePath, &song.FileURL,
		&song.Title, &song.Artist, &song.Album, &song.Year, &song.Duration,
		&song.Bitrate, &song.Samplerate, &song.Language, &song.Genre,
		&song.Track, &song.Disc, &song.Comment)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(id string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM metadata WHERE id = ?`
	song, err := scanSong(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %s: %w", id, err)
	}
	return song, nil
}

// GetSongByTitleArtist retrieves a song by its natural key (title, artist).
func (r *mysqlSongRepository) GetSongByTitleArtist(title, artist string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM metadata WHERE title = ? AND artist = ?`
	song, err := scanSong(r.DB.QueryRow(query, title, artist))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by title %q artist %q: %w", title, artist, err)
	}
	return song, nil
}

// GetAllSongs retrieves every song in the library.
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM metadata`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongs: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongs: %w", err)
	}

	return songs, nil
}

// CreateSong adds a new song to the database.
func (r *mysqlSongRepository) CreateSong(song *model.Song) error {
	query := `INSERT INTO metadata (` + songColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(song.ID, song.FileName, song.FilePath, song.FileURL,
		song.Title, song.Artist, song.Album, song.Year, song.Duration,
		song.Bitrate, song.Samplerate, song.Language, song.Genre,
		song.Track, song.Disc, song.Comment)
	if err != nil {
		return fmt.Errorf("failed to execute CreateSong: %w", err)
	}
	logger.Debug("Song created", logger.String("songId", song.ID), logger.String("title", song.Title))
	return nil
}

// UpdateSongLocation updates the file-location fields of an existing song.
// Used when a known (title, artist) pair is rediscovered at a new path,
// i.e. the file moved on disk. The song id never changes.
func (r *mysqlSongRepository) UpdateSongLocation(id, fileName, filePath, fileURL string) (int64, error) {
	query := `UPDATE metadata SET file_name = ?, file_path = ?, file_url = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for UpdateSongLocation: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(fileName, filePath, fileURL, id)
	if err != nil {
		return 0, fmt.Errorf("failed to execute UpdateSongLocation for song %s: %w", id, err)
	}
	rows, _ := res.RowsAffected()
	return rows, nil
}
