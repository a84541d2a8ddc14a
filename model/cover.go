package model

// Cover type constants. LinkID points at the entity of the given type.
const (
	CoverTypeAlbum = "album"
	CoverTypeSong  = "song"
)

// Cover size labels produced by the transcoder.
const (
	CoverSizeSmall    = "small"
	CoverSizeMedium   = "medium"
	CoverSizeLarge    = "large"
	CoverSizeOriginal = "original"
)

// Cover is one resized/recompressed derivative of an embedded image,
// keyed by (type, link_id, size).
type Cover struct {
	Type   string `gorm:"column:type;size:16;uniqueIndex:uq_cover" json:"type"`
	LinkID int64  `gorm:"column:link_id;uniqueIndex:uq_cover" json:"linkId"`
	Format string `gorm:"column:format;size:16" json:"format"`
	Size   string `gorm:"column:size;size:16;uniqueIndex:uq_cover" json:"size"`
	Length int    `gorm:"column:length" json:"length"` // payload bytes before base64
	Width  int    `gorm:"column:width" json:"width"`
	Height int    `gorm:"column:height" json:"height"`
	Base64 string `gorm:"column:base64;type:longtext" json:"base64"`
}

// TableName 指定表名
func (Cover) TableName() string {
	return "cover"
}
