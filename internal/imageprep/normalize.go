// Package imageprep prepares receipt photos for character recognition.
//
// The transform chain is fixed: grayscale, 2.0x contrast gain, sharpen,
// Otsu binarization. Every step is a pure function of the input pixels.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"

	"github.com/gesthor/ocr-service/internal/common"
)

// contrastGain matches the tuned gain used in production; values above it
// start eating thin strokes on thermal-paper receipts.
const contrastGain = 2.0

const sharpenSigma = 1.0

// Decode decodes raster image bytes. HEIC/HEIF containers (iPhone photos)
// are sniffed and routed to the dedicated decoder since the standard image
// registry does not know them.
func Decode(data []byte) (image.Image, error) {
	if isHEIC(data) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: heic: %v", common.ErrImageDecode, err)
		}
		return img, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrImageDecode, err)
	}
	return img, nil
}

// Normalize turns raw image bytes into a strictly two-valued grayscale
// image optimized for OCR.
func Normalize(data []byte) (*image.Gray, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return NormalizeImage(img), nil
}

// NormalizeImage runs the transform chain on an already decoded image.
func NormalizeImage(img image.Image) *image.Gray {
	gray := toGray(imaging.Grayscale(img))
	applyGain(gray, contrastGain)
	gray = toGray(imaging.Sharpen(gray, sharpenSigma))
	binarize(gray, otsuThreshold(gray))
	return gray
}

// EncodeJPEG re-encodes an image to a compact lossy payload for the vision
// provider.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
}

// toGray collapses an NRGBA image whose channels are already equal (output
// of imaging.Grayscale/Sharpen on gray input) into a single-channel image.
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[di+x] = src.Pix[si+x*4]
		}
	}
	return dst
}

// applyGain scales pixel distance from mid-gray by gain, clamping to [0,255].
func applyGain(g *image.Gray, gain float64) {
	for i, p := range g.Pix {
		v := 128 + gain*(float64(p)-128)
		switch {
		case v < 0:
			g.Pix[i] = 0
		case v > 255:
			g.Pix[i] = 255
		default:
			g.Pix[i] = uint8(v)
		}
	}
}

// otsuThreshold picks the global threshold minimizing intra-class variance.
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	total := len(g.Pix)

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

func binarize(g *image.Gray, threshold uint8) {
	for i, p := range g.Pix {
		if p > threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}

// isHEIC sniffs the ISO-BMFF ftyp box for HEIC/HEIF brands.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}
