package imageprocessor

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Uploaded photos are normalized before they leave the server: dimensions are
// capped for bandwidth and the image is re-encoded (WebP preferred, JPEG as
// fallback when the WebP encoder is unavailable for the input).
const (
	MaxWidth    = 1200
	MaxHeight   = 800
	WebPQuality = 85
	JPEGQuality = 80
)

// Normalize re-encodes the image at srcPath into dstDir under the given base
// name and returns the path of the written file. The source file is left
// untouched.
func Normalize(srcPath, dstDir, baseName string) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("error opening image: %w", err)
	}

	img = capDimensions(img)

	webpPath := filepath.Join(dstDir, baseName+".webp")
	if err := saveWebP(img, webpPath); err == nil {
		return webpPath, nil
	} else {
		log.Warn(fmt.Sprintf("[ImageProcessor] WebP encode failed, falling back to JPEG: %v", err))
	}

	jpegPath := filepath.Join(dstDir, baseName+".jpg")
	if err := imaging.Save(img, jpegPath, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return "", fmt.Errorf("error encoding JPEG image: %w", err)
	}
	return jpegPath, nil
}

// capDimensions shrinks img to fit within MaxWidth x MaxHeight, preserving
// aspect ratio. Smaller images pass through unchanged.
func capDimensions(img image.Image) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= MaxWidth && bounds.Dy() <= MaxHeight {
		return img
	}
	return imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)
}

// saveWebP saves an image in WebP format
func saveWebP(img image.Image, outputPath string) error {
	// Ensure directory exists
	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	// Open output file
	output, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating WebP file: %w", err)
	}
	defer output.Close()

	// Configure WebP encoder
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, WebPQuality)
	if err != nil {
		return fmt.Errorf("error creating encoder options: %w", err)
	}

	// Convert and save image
	if err := webp.Encode(output, img, options); err != nil {
		return fmt.Errorf("error encoding WebP image: %w", err)
	}

	return nil
}

// ContentTypeForExt maps a normalized output extension to its MIME type.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
