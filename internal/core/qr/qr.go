// Package qr encodes a record's score map as a QR code image.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

const (
	Size          = 256
	dataURLPrefix = "data:image/png;base64,"
)

// PNG encodes the score map JSON, in its stored key order, as a QR code.
func PNG(m model.ScoreMap) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}
	png, err := qrcode.Encode(string(payload), qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

func DataURL(m model.ScoreMap) (string, error) {
	png, err := PNG(m)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}
