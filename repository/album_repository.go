package repository

import (
	"database/sql"
	"fmt"
	"time"

	"MusicFlow/db"
	"MusicFlow/logger"
	"MusicFlow/model"
)

// AlbumRepository defines the interface for album operations.
type AlbumRepository interface {
	GetAlbumByID(id int64) (*model.Album, error)
	GetAlbumByName(name string) (*model.Album, error)
	GetAllAlbums() ([]*model.Album, error)
	CreateAlbum(album *model.Album) (int64, error)
	GetAlbumSong(albumID int64, songID string) (*model.AlbumSong, error)
	GetAlbumSongBySongID(songID string) (*model.AlbumSong, error)
	CreateAlbumSong(link *model.AlbumSong) error
}

// mysqlAlbumRepository implements AlbumRepository for MySQL.
type mysqlAlbumRepository struct {
	DB *sql.DB
}

// NewMySQLAlbumRepository creates a new instance of mysqlAlbumRepository.
func NewMySQLAlbumRepository() AlbumRepository {
	return &mysqlAlbumRepository{DB: db.DB}
}

func scanAlbum(row rowScanner) (*model.Album, error) {
	album := &model.Album{}
	err := row.Scan(&album.ID, &album.Name, &album.Description, &album.Year,
		&album.Artist, &album.CreatedAt)
	if err != nil {
		return nil, err
	}
	return album, nil
}

// GetAlbumByID retrieves an album by its ID.
func (r *mysqlAlbumRepository) GetAlbumByID(id int64) (*model.Album, error) {
	query := `SELECT id, name, description, year, artist, created_at FROM album WHERE id = ?`
	album, err := scanAlbum(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Album not found
		}
		return nil, fmt.Errorf("failed to scan album by ID %d: %w", id, err)
	}
	return album, nil
}

// GetAlbumByName retrieves an album by its exact name.
func (r *mysqlAlbumRepository) GetAlbumByName(name string) (*model.Album, error) {
	query := `SELECT id, name, description, year, artist, created_at FROM album WHERE name = ?`
	album, err := scanAlbum(r.DB.QueryRow(query, name))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Album not found
		}
		return nil, fmt.Errorf("failed to scan album by name %q: %w", name, err)
	}
	return album, nil
}

// GetAllAlbums retrieves every album in the library.
func (r *mysqlAlbumRepository) GetAllAlbums() ([]*model.Album, error) {
	query := `SELECT id, name, description, year, artist, created_at FROM album ORDER BY name`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all albums: %w", err)
	}
	defer rows.Close()

	albums := make([]*model.Album, 0)
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album in GetAllAlbums: %w", err)
		}
		albums = append(albums, album)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllAlbums: %w", err)
	}

	return albums, nil
}

// CreateAlbum adds a new album and returns its generated ID.
func (r *mysqlAlbumRepository) CreateAlbum(album *model.Album) (int64, error) {
	query := `INSERT INTO album (name, description, year, artist, created_at) VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateAlbum: %w", err)
	}
	defer stmt.Close()

	if album.CreatedAt.IsZero() {
		album.CreatedAt = time.Now()
	}

	res, err := stmt.Exec(album.Name, album.Description, album.Year, album.Artist, album.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateAlbum: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for album %q: %w", album.Name, err)
	}
	album.ID = id
	logger.Debug("Album created", logger.Int64("albumId", id), logger.String("name", album.Name))
	return id, nil
}

// GetAlbumSong retrieves the link row for a specific (album, song) pair.
func (r *mysqlAlbumRepository) GetAlbumSong(albumID int64, songID string) (*model.AlbumSong, error) {
	query := `SELECT album_id, song_id, album_name, song_title, album_artist
	           FROM album_song WHERE album_id = ? AND song_id = ?`
	link := &model.AlbumSong{}
	err := r.DB.QueryRow(query, albumID, songID).Scan(&link.AlbumID, &link.SongID,
		&link.AlbumName, &link.SongTitle, &link.AlbumArtist)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Link not found
		}
		return nil, fmt.Errorf("failed to scan album_song for album %d song %s: %w", albumID, songID, err)
	}
	return link, nil
}

// GetAlbumSongBySongID retrieves the album link of a song, if any.
func (r *mysqlAlbumRepository) GetAlbumSongBySongID(songID string) (*model.AlbumSong, error) {
	query := `SELECT album_id, song_id, album_name, song_title, album_artist
	           FROM album_song WHERE song_id = ?`
	link := &model.AlbumSong{}
	err := r.DB.QueryRow(query, songID).Scan(&link.AlbumID, &link.SongID,
		&link.AlbumName, &link.SongTitle, &link.AlbumArtist)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Link not found
		}
		return nil, fmt.Errorf("failed to scan album_song for song %s: %w", songID, err)
	}
	return link, nil
}

// CreateAlbumSong adds a new album-song link row.
func (r *mysqlAlbumRepository) CreateAlbumSong(link *model.AlbumSong) error {
	query := `INSERT INTO album_song (album_id, song_id, album_name, song_title, album_artist)
	           VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateAlbumSong: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(link.AlbumID, link.SongID, link.AlbumName, link.SongTitle, link.AlbumArtist)
	if err != nil {
		return fmt.Errorf("failed to execute CreateAlbumSong: %w", err)
	}
	return nil
}
