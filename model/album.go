package model

import "time"

// Album represents an album in the music library.
// Albums are deduplicated by exact name match.
type Album struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"column:name;size:191;uniqueIndex:uq_album_name" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Year        string    `gorm:"column:year;size:32" json:"year"`
	Artist      string    `gorm:"column:artist;size:255" json:"artist"` // primary/album artist
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName 指定表名
func (Album) TableName() string {
	return "album"
}

// AlbumSong links a song to its album, with denormalized display fields
// for read efficiency.
type AlbumSong struct {
	AlbumID     int64  `gorm:"column:album_id;uniqueIndex:uq_album_song" json:"albumId"`
	SongID      string `gorm:"column:song_id;type:char(9);uniqueIndex:uq_album_song" json:"songId"`
	AlbumName   string `gorm:"column:album_name;size:255" json:"albumName"`
	SongTitle   string `gorm:"column:song_title;size:255" json:"songTitle"`
	AlbumArtist string `gorm:"column:album_artist;size:255" json:"albumArtist"`
}

// TableName 指定表名
func (AlbumSong) TableName() string {
	return "album_song"
}
