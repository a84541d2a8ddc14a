package model

// Song represents one ingested audio file (metadata table).
// The natural key for deduplication is (title, artist); the id is a short
// random string generated once and never changed afterwards.
type Song struct {
	ID         string  `gorm:"column:id;type:char(9);primaryKey" json:"id"`
	FileName   string  `gorm:"column:file_name;size:512" json:"fileName"`
	FilePath   string  `gorm:"column:file_path;size:767" json:"-"` // absolute path, not exposed in API directly
	FileURL    string  `gorm:"column:file_url;size:767" json:"fileUrl"`
	Title      string  `gorm:"column:title;size:191;uniqueIndex:uq_title_artist" json:"title"`
	Artist     string  `gorm:"column:artist;size:191;uniqueIndex:uq_title_artist" json:"artist"` // raw, possibly "/"-delimited
	Album      string  `gorm:"column:album;size:255" json:"album"`
	Year       string  `gorm:"column:year;size:32" json:"year"`
	Duration   float64 `gorm:"column:duration" json:"duration"` // seconds
	Bitrate    string  `gorm:"column:bitrate;size:32" json:"bitrate"`
	Samplerate string  `gorm:"column:samplerate;size:32" json:"samplerate"`
	Language   string  `gorm:"column:language;size:64" json:"language"`
	Genre      string  `gorm:"column:genre;size:512" json:"genre"` // comma-delimited tag list
	Track      string  `gorm:"column:track;size:32" json:"track"`  // opaque display string, e.g. "3/12"
	Disc       string  `gorm:"column:disc;size:32" json:"disc"`
	Comment    string  `gorm:"column:comment;type:text" json:"comment"`
}

// TableName 指定表名
func (Song) TableName() string {
	return "metadata"
}
