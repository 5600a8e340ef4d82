// Package pixel turns untrusted upload bytes into the canonical pixel
// buffer the recognition engine consumes.
//
// Uploads are validated cheaply (extension allow-set, emptiness, size
// bound) before any decode work happens. Decoding itself is content
// based: the claimed extension is never trusted beyond the pre-check.
// Whatever the source color model (alpha, greyscale, palette), the
// decoded image is flattened to a packed 3-channel RGB buffer at native
// resolution. No resizing or other geometric transformation is applied.
package pixel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"

	// Register bmp, tiff and webp so content-based decoding covers the
	// full extension allow-set. jpeg/png/gif come with image/png and
	// friends via imaging.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxUploadBytes is the default upload size bound (10 MiB).
const MaxUploadBytes = 10 * 1024 * 1024

// Channels is the canonical channel count of a decoded Buffer.
const Channels = 3

// allowedExtensions is the upload extension allow-set, matched
// case-insensitively against the substring after the last dot.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true,
	"bmp": true, "tiff": true, "tif": true, "webp": true,
}

var (
	// ErrEmptyUpload is returned for a zero-length upload.
	ErrEmptyUpload = errors.New("empty file uploaded")

	// ErrTooLarge is returned when the upload exceeds the size bound.
	ErrTooLarge = errors.New("file too large")

	// ErrExtension is returned when the filename carries an extension
	// outside the allow-set.
	ErrExtension = errors.New("invalid file type")

	// ErrUndecodable is returned when the content cannot be decoded as
	// any supported image format.
	ErrUndecodable = errors.New("undecodable image content")
)

// AllowedExtensionList returns the allow-set as a sorted-ish display
// string for error messages.
func AllowedExtensionList() string {
	return "jpg, jpeg, png, bmp, tiff, tif, webp"
}

// Validate applies the pre-decode checks: extension allow-set (skipped
// when the filename carries no extension), emptiness and size bound.
// maxBytes <= 0 falls back to MaxUploadBytes.
func Validate(filename string, size int64, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxUploadBytes
	}

	if ext, ok := extensionOf(filename); ok && !allowedExtensions[ext] {
		return fmt.Errorf("%w: .%s not allowed (allowed: %s)", ErrExtension, ext, AllowedExtensionList())
	}
	if size == 0 {
		return ErrEmptyUpload
	}
	if size > maxBytes {
		return fmt.Errorf("%w: maximum size %dMB", ErrTooLarge, maxBytes/(1024*1024))
	}
	return nil
}

// extensionOf reports the lowercased substring after the last dot. A
// trailing dot yields an empty extension, which fails the allow-set
// check like any other unknown extension.
func extensionOf(filename string) (string, bool) {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 {
		return "", false
	}
	return strings.ToLower(filename[idx+1:]), true
}

// Buffer is a decoded image in packed RGB form: Pix holds
// Width*Height*Channels bytes in row-major order.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// Decode parses data into a Buffer. Callers are expected to have run
// Validate first; Decode still rejects empty input.
func Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return FromImage(img), nil
}

// FromImage flattens any image.Image into a canonical 3-channel Buffer,
// dropping alpha and expanding greyscale/palette sources.
func FromImage(img image.Image) *Buffer {
	// Clone normalizes every source color model to NRGBA.
	nrgba := imaging.Clone(img)

	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	buf := &Buffer{
		Width:  w,
		Height: h,
		Pix:    make([]uint8, w*h*Channels),
	}

	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := buf.Pix[y*w*Channels:]
		for x := 0; x < w; x++ {
			dst[x*Channels+0] = src[x*4+0]
			dst[x*Channels+1] = src[x*4+1]
			dst[x*Channels+2] = src[x*4+2]
		}
	}
	return buf
}

// Image reconstructs the buffer as an opaque image.Image.
func (b *Buffer) Image() image.Image {
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Pix[y*b.Width*Channels:]
		dst := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < b.Width; x++ {
			dst[x*4+0] = src[x*Channels+0]
			dst[x*4+1] = src[x*Channels+1]
			dst[x*4+2] = src[x*Channels+2]
			dst[x*4+3] = 0xff
		}
	}
	return nrgba
}

// EncodePNG serializes the buffer as PNG for engines that consume
// encoded bytes rather than raw pixels.
func (b *Buffer) EncodePNG() ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, b.Image()); err != nil {
		return nil, fmt.Errorf("encode buffer: %w", err)
	}
	return out.Bytes(), nil
}
