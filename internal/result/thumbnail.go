package result

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const (
	thumbnailDir     = "thumbnails"
	thumbnailMaxSide = 300
	thumbnailQuality = 80
)

// scaleToFit shrinks img so its longest side is at most maxSide, keeping the
// aspect ratio. Smaller images are returned unchanged.
func scaleToFit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}

	var nw, nh int
	if w >= h {
		nw = maxSide
		nh = max(1, h*maxSide/w)
	} else {
		nh = maxSide
		nw = max(1, w*maxSide/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// writeThumbnail stores a JPEG thumbnail under dataDir and returns its path
// relative to dataDir.
func writeThumbnail(dataDir, id string, img image.Image) (string, error) {
	dir := filepath.Join(dataDir, thumbnailDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail dir: %w", err)
	}

	name := id + ".jpg"
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, scaleToFit(img, thumbnailMaxSide), &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("rename thumbnail: %w", err)
	}
	return filepath.ToSlash(filepath.Join(thumbnailDir, name)), nil
}
