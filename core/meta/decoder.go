package meta

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"MusicFlow/logger"
)

// Decoded carries the raw tag values of one audio file before
// normalization. String fields stay exactly as the tags hold them.
type Decoded struct {
	Title       string
	Artist      string // multi-valued artist tags joined with "/"
	Album       string
	AlbumArtist string
	Year        string
	Genre       string
	Track       string
	Disc        string
	Language    string
	Comment     string
	Lyrics      string  // embedded LRC text, may be empty
	Duration    float64 // seconds, millisecond precision
	Bitrate     string  // kbps
	Samplerate  string  // Hz
	Cover       []byte  // raw embedded image, nil unless requested
}

// ReadCover extracts the first embedded picture of an audio file.
// Split out from ReadMetadata so callers can defer the extraction until
// they know the cover is actually needed.
func ReadCover(path string) ([]byte, error) {
	return taglib.ReadImage(path)
}

// ReadMetadata decodes the tags and stream properties of one audio file.
// Unknown tag keys are ignored. When withCover is true the first embedded
// picture is extracted as well; cover extraction failures are logged and
// tolerated since many files simply carry no art.
func ReadMetadata(path string, withCover bool) (*Decoded, error) {
	tags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	dec := &Decoded{}
	for key, values := range tags {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		switch strings.ToLower(key) {
		case "title":
			dec.Title = value
		case "artist":
			// 多艺术家标签统一用"/"连接，和单标签多值写法保持一致
			dec.Artist = strings.Join(values, "/")
		case "album":
			dec.Album = value
		case "albumartist":
			dec.AlbumArtist = value
		case "date", "year":
			if dec.Year == "" {
				dec.Year = value
			}
		case "genre":
			dec.Genre = value
		case "tracknumber":
			dec.Track = value
		case "discnumber":
			dec.Disc = value
		case "language":
			dec.Language = value
		case "comment":
			dec.Comment = value
		case "lyrics":
			dec.Lyrics = value
		}
	}

	props, err := taglib.ReadProperties(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read properties from %s: %w", path, err)
	}

	// keep millisecond precision, drop anything finer
	dec.Duration = math.Round(props.Length.Seconds()*1000) / 1000
	if props.Bitrate > 0 {
		dec.Bitrate = strconv.Itoa(int(props.Bitrate))
	}
	if props.SampleRate > 0 {
		dec.Samplerate = strconv.Itoa(int(props.SampleRate))
	}

	if withCover {
		img, err := taglib.ReadImage(path)
		if err != nil {
			logger.Debug("No embedded cover extracted",
				logger.String("path", path), logger.ErrorField(err))
		} else {
			dec.Cover = img
		}
	}

	return dec, nil
}
