package report

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
)

var errEmptyImage = errors.New("empty image")

// prepareImage turns encoded image bytes into an Image the PDF writer
// accepts and returns its aspect ratio. JPEG passes through; anything
// else is redrawn as 8-bit non-interlaced PNG.
func prepareImage(data []byte) (Image, float64, error) {
	if len(data) == 0 {
		return Image{}, 0, errEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, 0, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return Image{}, 0, errEmptyImage
	}
	ar := float64(cfg.Width) / float64(cfg.Height)

	if format == "jpeg" {
		return Image{Format: "JPG", Data: data}, ar, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, 0, fmt.Errorf("decode image: %w", err)
	}
	dst := image.NewNRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Image{}, 0, fmt.Errorf("encode image: %w", err)
	}
	return Image{Format: "PNG", Data: buf.Bytes()}, ar, nil
}

// decodePhoto reads the base64 photo of a record. A data URL prefix is
// tolerated.
func decodePhoto(b64 string) ([]byte, error) {
	s := strings.TrimSpace(b64)
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, errEmptyImage
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	return data, nil
}
