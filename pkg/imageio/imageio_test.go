package imageio

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"gaussinit/internal/models"
)

func gradient() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 0})
	img.SetGray16(1, 0, color.Gray16{Y: 65535})
	img.SetGray16(2, 1, color.Gray16{Y: 13107})
	return img
}

func TestLoad_Raster(t *testing.T) {
	type test struct {
		encode func(f *os.File, img image.Image) error
	}

	tests := map[string]test{
		"image.png": {encode: func(f *os.File, img image.Image) error { return png.Encode(f, img) }},
		"image.tif": {encode: func(f *os.File, img image.Image) error { return tiff.Encode(f, img, nil) }},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, tt.encode(f, gradient()))
			require.NoError(t, f.Close())

			img, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 3, img.Width)
			assert.Equal(t, 2, img.Height)
			assert.InDelta(t, 0, img.At(0, 0), 1e-9)
			assert.InDelta(t, 1, img.At(1, 0), 1e-9)
			assert.InDelta(t, 0.2, img.At(2, 1), 1e-9)
		})
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "image.json")
	want := models.Image{Data: []float64{-1, 0.5, 2, 3}, Width: 2, Height: 2}

	require.NoError(t, SaveJSON(want, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeJSON_Invalid(t *testing.T) {
	type test struct {
		doc string
	}

	tests := map[string]test{
		"short data":     {doc: `{"width": 2, "height": 2, "data": [1, 2, 3]}`},
		"zero width":     {doc: `{"width": 0, "height": 2, "data": []}`},
		"missing fields": {doc: `{"data": [1]}`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.doc))
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}

	_, err := DecodeJSON(strings.NewReader(`{"width": `))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.True(t, os.IsNotExist(err))

	path := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestImageToFloat_Offset(t *testing.T) {
	img := image.NewGray16(image.Rect(10, 20, 12, 21))
	img.SetGray16(11, 20, color.Gray16{Y: 65535})

	got := ImageToFloat(img)
	assert.Equal(t, models.Image{Data: []float64{0, 1}, Width: 2, Height: 1}, got)
}
