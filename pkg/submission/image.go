package submission

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxImageBytes int64   = 5 << 20
	DefaultMaxImageWidth int     = 1200
	DefaultImageQuality  float64 = 0.8
)

// Image is a validated attachment that has not been transformed yet.
type Image struct {
	Name    string
	MIME    string
	Data    []byte
	Preview string
}

// LoadImage reads at most maxBytes from r and accepts it only if the content sniffs as an image.
func LoadImage(name string, r io.Reader, maxBytes int64) (*Image, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, maxBytes)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrImageWrongType, mime.String())
	}

	return &Image{
		Name:    name,
		MIME:    mime.String(),
		Data:    data,
		Preview: DataURI(mime.String(), data),
	}, nil
}

func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI is the inverse of DataURI for base64 payloads.
func ParseDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data uri", ErrInvalidValue)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data uri without payload", ErrInvalidValue)
	}
	mime, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: data uri is not base64", ErrInvalidValue)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return mime, data, nil
}

// scaledSize fits w x h inside a maxPx square without upscaling.
func scaledSize(w, h, maxPx int) (int, int) {
	if maxPx <= 0 || w <= 0 || h <= 0 {
		return w, h
	}
	scale := math.Min(float64(maxPx)/float64(w), float64(maxPx)/float64(h))
	if scale >= 1 {
		return w, h
	}
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	return min(nw, w), min(nh, h)
}

// CompressImage downscales data to fit maxWidthPx and re-encodes it as JPEG at quality (0, 1].
// When the re-encoded result would be bigger, the input is returned unchanged.
func CompressImage(ctx context.Context, data []byte, maxWidthPx int, quality float64) ([]byte, error) {
	if quality <= 0 || quality > 1 {
		return nil, fmt.Errorf("%w: quality %v outside (0, 1]", ErrInvalidValue, quality)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := src.Bounds()
	nw, nh := scaledSize(b.Dx(), b.Dy(), maxWidthPx)

	// JPEG has no alpha, flatten onto white.
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	if nw == b.Dx() && nh == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	q := min(100, max(1, int(math.Round(quality*100))))
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
