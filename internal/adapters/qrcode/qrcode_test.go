package qrcode

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/domain/scanner"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	const payload = "https://catalogo.example/animal-details/a5c0b78c-0f9c-4e8a-a75d-f192b1a1c9a6"

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, payload, 300))

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	text, err := NewDecoder().Decode(img)
	require.NoError(t, err)
	assert.Equal(t, payload, text)

	id, err := scanner.ParsePayload(text)
	require.NoError(t, err)
	assert.Equal(t, "a5c0b78c-0f9c-4e8a-a75d-f192b1a1c9a6", id)
}

func TestDecode_BlankFrameIsNoCode(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 120, 120))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	_, err := NewDecoder().Decode(img)
	require.ErrorIs(t, err, scanner.ErrNoCode)

	_, err = NewDecoder().Decode(nil)
	require.ErrorIs(t, err, scanner.ErrNoCode)
}

func TestEncode_RejectsEmpty(t *testing.T) {
	_, err := Encode("", 100)
	require.Error(t, err)
}
