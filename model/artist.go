package model

// Artist represents a single performing artist, deduplicated by name.
// A song's raw artist string is split on "/" into individual artists.
type Artist struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"column:name;size:191;uniqueIndex:uq_artist_name" json:"name"`
	Cover       string `gorm:"column:cover;size:767" json:"cover"`
	Description string `gorm:"column:description;type:text" json:"description"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return "artist"
}

// ArtistSong links a resolved artist to a song.
type ArtistSong struct {
	ArtistID int64  `gorm:"column:artist_id;uniqueIndex:uq_artist_song" json:"artistId"`
	SongID   string `gorm:"column:song_id;type:char(9);uniqueIndex:uq_artist_song" json:"songId"`
}

// TableName 指定表名
func (ArtistSong) TableName() string {
	return "artist_song"
}
