// Package qrcode lee y genera códigos QR con gozxing.
package qrcode

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"animal-catalog/internal/domain/scanner"
)

// Decoder implementa scanner.Decoder.
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewDecoder() *Decoder {
	return &Decoder{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode devuelve scanner.ErrNoCode (envuelto) cuando el frame no tiene un QR legible.
func (d *Decoder) Decode(img image.Image) (string, error) {
	if img == nil {
		return "", scanner.ErrNoCode
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scanner.ErrNoCode, err)
	}

	res, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scanner.ErrNoCode, err)
	}
	return res.GetText(), nil
}

// Encode genera el QR de text como imagen de size x size.
func Encode(text string, size int) (image.Image, error) {
	if text == "" {
		return nil, errors.New("qrcode: empty text")
	}
	if size <= 0 {
		size = 256
	}
	m, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	return m, nil
}

// WritePNG escribe el QR de text en w.
func WritePNG(w io.Writer, text string, size int) error {
	img, err := Encode(text, size)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
