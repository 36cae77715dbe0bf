package image

import (
	"fmt"
	"image"
	"os"

	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png

	"golang.org/x/image/draw"
)

// CompressAndSave resizes img to fit width x height and writes it to savePath
// as JPEG at the given quality. Uploaded pictures are always re-encoded; the
// original bytes never reach disk.
func CompressAndSave(img image.Image, savePath string, width, height, quality int) error {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	out, err := os.Create(savePath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	opts := &jpeg.Options{Quality: quality}
	if err := jpeg.Encode(out, dst, opts); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}
