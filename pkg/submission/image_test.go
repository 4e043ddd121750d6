package submission

import (
	"bytes"
	"context"
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage_AcceptsImages(t *testing.T) {
	data := encodePNG(t, photo(40, 30))

	img, err := LoadImage("cat.png", bytes.NewReader(data), DefaultMaxImageBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, data, img.Data)
	assert.True(t, strings.HasPrefix(img.Preview, "data:image/png;base64,"))
}

func TestLoadImage_SniffsContentNotName(t *testing.T) {
	data := encodeJPEG(t, photo(40, 30), 90)

	img, err := LoadImage("renamed.txt", bytes.NewReader(data), DefaultMaxImageBytes)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIME)

	_, err = LoadImage("fake.jpg", strings.NewReader("just some text pretending"), DefaultMaxImageBytes)
	assert.ErrorIs(t, err, ErrImageWrongType)
}

func TestLoadImage_SizeBound(t *testing.T) {
	header := encodePNG(t, photo(4, 4))

	atLimit := make([]byte, DefaultMaxImageBytes)
	copy(atLimit, header)
	_, err := LoadImage("big.png", bytes.NewReader(atLimit), DefaultMaxImageBytes)
	assert.NoError(t, err)

	overLimit := make([]byte, DefaultMaxImageBytes+1)
	copy(overLimit, header)
	_, err = LoadImage("huge.png", bytes.NewReader(overLimit), DefaultMaxImageBytes)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, max      int
		wantW, wantH   int
	}{
		{2400, 1600, 1200, 1200, 800},
		{1600, 2400, 1200, 800, 1200},
		{800, 600, 1200, 800, 600},
		{1200, 1200, 1200, 1200, 1200},
		{5000, 10, 1000, 1000, 2},
		{10, 5000, 1000, 2, 1000},
		{300, 200, 0, 300, 200},
	}

	for _, tt := range tests {
		w, h := scaledSize(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d -> %d", tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantH, h, "%dx%d -> %d", tt.w, tt.h, tt.max)
	}
}

func TestCompressImage_Downscales(t *testing.T) {
	input := encodeJPEG(t, photo(1800, 1200), 95)

	out, err := CompressImage(context.Background(), input, 1200, 0.8)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(input))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1200, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestCompressImage_NeverUpscales(t *testing.T) {
	input := encodePNG(t, photo(300, 200))

	out, err := CompressImage(context.Background(), input, 1200, 0.7)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(input))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompressImage_KeepsOriginalWhenReencodeIsBigger(t *testing.T) {
	// A tiny, already tightly compressed JPEG grows when re-encoded at higher quality.
	input := encodeJPEG(t, photo(16, 16), 1)

	out, err := CompressImage(context.Background(), input, 1200, 1.0)
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestCompressImage_Errors(t *testing.T) {
	input := encodePNG(t, photo(10, 10))

	_, err := CompressImage(context.Background(), input, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = CompressImage(context.Background(), input, 100, 1.5)
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = CompressImage(context.Background(), []byte("<svg></svg>"), 100, 0.8)
	assert.ErrorIs(t, err, ErrImageDecode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CompressImage(ctx, input, 100, 0.8)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDataURIRoundTrip(t *testing.T) {
	data := encodePNG(t, photo(3, 3))

	mime, decoded, err := ParseDataURI(DataURI("image/png", data))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, data, decoded)

	for _, bad := range []string{"image/png;base64,AAAA", "data:image/png;base64", "data:image/png,AAAA", "data:image/png;base64,***"} {
		_, _, err := ParseDataURI(bad)
		assert.ErrorIs(t, err, ErrInvalidValue, bad)
	}
}
