package cover

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for embedded art
	_ "image/png"

	"github.com/gen2brain/webp"
	"golang.org/x/image/draw"

	"MusicFlow/logger"
)

// SizeSpec names one derivative to produce from an embedded cover.
type SizeSpec struct {
	Target int    // longer edge after scaling, in pixels
	Label  string // stored size label
}

// DefaultSizeSpecs are the derivatives generated during ingestion.
var DefaultSizeSpecs = []SizeSpec{
	{Target: 140, Label: "small"},
	{Target: 600, Label: "medium"},
}

// ThumbQuality is the webp quality used for thumbnails.
// 缩略图只用于列表展示，压得很低以控制库体积
const ThumbQuality = 10

// Derivative is one resized and recompressed cover image.
type Derivative struct {
	Label  string
	Format string // always "webp"
	Width  int
	Height int
	Data   []byte
}

// scaledDims computes the output dimensions for one target size.
// Square images become target x target; otherwise the longer edge is
// scaled to target and the shorter edge keeps the aspect ratio.
func scaledDims(w, h, target int) (int, int) {
	if w == h {
		return target, target
	}
	if w > h {
		return target, h * target / w
	}
	return w * target / h, target
}

// Transcode decodes raw embedded image bytes and produces one webp
// derivative per size spec. A derivative that fails to encode is skipped;
// only an undecodable source image fails the whole call.
func Transcode(raw []byte, specs []SizeSpec) ([]Derivative, error) {
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedded cover (%s): %w", format, err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("embedded cover has empty bounds")
	}

	derivatives := make([]Derivative, 0, len(specs))
	for _, spec := range specs {
		dstW, dstH := scaledDims(srcW, srcH, spec.Target)
		dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		var buf bytes.Buffer
		if err := webp.Encode(&buf, dst, webp.Options{Quality: ThumbQuality}); err != nil {
			logger.Warn("Failed to encode cover derivative, skipping",
				logger.String("size", spec.Label), logger.ErrorField(err))
			continue
		}

		derivatives = append(derivatives, Derivative{
			Label:  spec.Label,
			Format: "webp",
			Width:  dstW,
			Height: dstH,
			Data:   buf.Bytes(),
		})
	}

	return derivatives, nil
}
