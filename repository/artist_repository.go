package repository

import (
	"database/sql"
	"fmt"

	"MusicFlow/db"
	"MusicFlow/logger"
	"MusicFlow/model"
)

// ArtistRepository defines the interface for artist operations.
type ArtistRepository interface {
	GetArtistByName(name string) (*model.Artist, error)
	GetAllArtists() ([]*model.Artist, error)
	CreateArtist(artist *model.Artist) (int64, error)
	GetArtistSongsBySongID(songID string) ([]*model.ArtistSong, error)
	CreateArtistSongs(links []*model.ArtistSong) error
}

// mysqlArtistRepository implements ArtistRepository for MySQL.
type mysqlArtistRepository struct {
	DB *sql.DB
}

// NewMySQLArtistRepository creates a new instance of mysqlArtistRepository.
func NewMySQLArtistRepository() ArtistRepository {
	return &mysqlArtistRepository{DB: db.DB}
}

// GetArtistByName retrieves an artist by exact name.
func (r *mysqlArtistRepository) GetArtistByName(name string) (*model.Artist, error) {
	query := `SELECT id, name, cover, description FROM artist WHERE name = ?`
	artist := &model.Artist{}
	err := r.DB.QueryRow(query, name).Scan(&artist.ID, &artist.Name, &artist.Cover, &artist.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Artist not found
		}
		return nil, fmt.Errorf("failed to scan artist by name %q: %w", name, err)
	}
	return artist, nil
}

// GetAllArtists retrieves every artist in the library.
func (r *mysqlArtistRepository) GetAllArtists() ([]*model.Artist, error) {
	query := `SELECT id, name, cover, description FROM artist ORDER BY name`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all artists: %w", err)
	}
	defer rows.Close()

	artists := make([]*model.Artist, 0)
	for rows.Next() {
		artist := &model.Artist{}
		if err := rows.Scan(&artist.ID, &artist.Name, &artist.Cover, &artist.Description); err != nil {
			return nil, fmt.Errorf("failed to scan artist in GetAllArtists: %w", err)
		}
		artists = append(artists, artist)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllArtists: %w", err)
	}

	return artists, nil
}

// CreateArtist adds a new artist and returns its generated ID.
func (r *mysqlArtistRepository) CreateArtist(artist *model.Artist) (int64, error) {
	query := `INSERT INTO artist (name, cover, description) VALUES (?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateArtist: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(artist.Name, artist.Cover, artist.Description)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateArtist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for artist %q: %w", artist.Name, err)
	}
	artist.ID = id
	logger.Debug("Artist created", logger.Int64("artistId", id), logger.String("name", artist.Name))
	return id, nil
}

// GetArtistSongsBySongID retrieves all artist links of a song.
func (r *mysqlArtistRepository) GetArtistSongsBySongID(songID string) ([]*model.ArtistSong, error) {
	query := `SELECT artist_id, song_id FROM artist_song WHERE song_id = ?`
	rows, err := r.DB.Query(query, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artist_song for song %s: %w", songID, err)
	}
	defer rows.Close()

	links := make([]*model.ArtistSong, 0)
	for rows.Next() {
		link := &model.ArtistSong{}
		if err := rows.Scan(&link.ArtistID, &link.SongID); err != nil {
			return nil, fmt.Errorf("failed to scan artist_song in GetArtistSongsBySongID: %w", err)
		}
		links = append(links, link)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetArtistSongsBySongID: %w", err)
	}

	return links, nil
}

// CreateArtistSongs inserts all artist links of a song in one transaction.
func (r *mysqlArtistRepository) CreateArtistSongs(links []*model.ArtistSong) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for CreateArtistSongs: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO artist_song (artist_id, song_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateArtistSongs: %w", err)
	}
	defer stmt.Close()

	for _, link := range links {
		if _, err := stmt.Exec(link.ArtistID, link.SongID); err != nil {
			return fmt.Errorf("failed to insert artist_song (%d, %s): %w", link.ArtistID, link.SongID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CreateArtistSongs: %w", err)
	}
	return nil
}
