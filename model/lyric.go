package model

// Lyric is one timestamped lyric line belonging to a song.
// A song either has zero lyric rows or a full set; any existing row means
// the song's lyrics were already ingested.
type Lyric struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SongID   string  `gorm:"column:song_id;type:char(9);index:idx_lyric_song" json:"songId"`
	Time     float64 `gorm:"column:time" json:"time"` // seconds
	Text     string  `gorm:"column:text;size:1024" json:"text"`
	Language string  `gorm:"column:language;size:64" json:"language"`
}

// TableName 指定表名
func (Lyric) TableName() string {
	return "lyric"
}
