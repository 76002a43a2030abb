package imaging

import (
	"bytes"
	"image"
	stddraw "image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	MinCompressBytes = 100 * 1024
	MaxWidth         = 1600
	JPEGQuality      = 80
)

// File is an upload ready to be sent to the backend.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Compressed  bool
}

// Compress downsizes a photo before upload. It never fails: whenever decoding
// or encoding does not work out, or the result would not be smaller, the
// original bytes are returned unchanged.
func Compress(name string, data []byte) File {
	orig := File{Name: name, ContentType: detect(data), Data: data}
	if len(data) < MinCompressBytes {
		return orig
	}

	img, ok := decode(data)
	if !ok {
		return orig
	}

	out, ok := encode(scale(img))
	if !ok || len(out) >= len(data) {
		return orig
	}

	return File{
		Name:        jpegName(name),
		ContentType: "image/jpeg",
		Data:        out,
		Compressed:  true,
	}
}

func detect(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}

func decode(data []byte) (image.Image, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, true
	}
	if decoded, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return decoded, true
	}
	return nil, false
}

// scale shrinks img to MaxWidth keeping its aspect ratio. Narrower images are
// only flattened onto an opaque canvas.
func scale(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	dw, dh := w, h
	if w > MaxWidth {
		dw = MaxWidth
		dh = h * MaxWidth / w
		if dh < 1 {
			dh = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	stddraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, stddraw.Src)
	if dw == w && dh == h {
		stddraw.Draw(dst, dst.Bounds(), img, b.Min, stddraw.Over)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

func encode(img image.Image) ([]byte, bool) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func jpegName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "photo"
	}
	return base + ".jpg"
}
