// Package imageio loads intensity images from disk. Raster files (PNG,
// JPEG, TIFF) are converted to luminance in [0, 1]; JSON files carry the
// raw float values.
package imageio

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/tiff"

	"gaussinit/internal/models"
)

// Document is the JSON representation of an intensity image.
type Document struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Data   []float64 `json:"data"`
}

// Load reads the image at path. The format follows the file extension:
// .json for Document files, anything else is decoded as a raster image.
func Load(path string) (models.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Image{}, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		img, err := DecodeJSON(file)
		if err != nil {
			return models.Image{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return img, nil
	}

	raster, format, err := image.Decode(file)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	img := ImageToFloat(raster)
	if len(img.Data) == 0 {
		return models.Image{}, fmt.Errorf("%w: %s image %s is empty", models.ErrConfiguration, format, path)
	}
	return img, nil
}

// DecodeJSON reads a Document and checks its dimensions.
func DecodeJSON(r io.Reader) (models.Image, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return models.Image{}, fmt.Errorf("error parsing image document: %w", err)
	}
	if doc.Width <= 0 || doc.Height <= 0 || len(doc.Data) != doc.Width*doc.Height {
		return models.Image{}, fmt.Errorf("%w: image document has %d values for %dx%d",
			models.ErrConfiguration, len(doc.Data), doc.Width, doc.Height)
	}
	return models.Image{Data: doc.Data, Width: doc.Width, Height: doc.Height}, nil
}

// SaveJSON writes img as a Document.
func SaveJSON(img models.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	data, err := json.Marshal(Document{Width: img.Width, Height: img.Height, Data: img.Data})
	if err != nil {
		return fmt.Errorf("error marshaling image: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ImageToFloat converts a raster image to luminance values in [0, 1],
// row-major from the top left corner of its bounds.
func ImageToFloat(img image.Image) models.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			result[y*width+x] = float64(g.Y) / 65535.0
		}
	}

	return models.Image{Data: result, Width: width, Height: height}
}
