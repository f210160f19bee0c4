package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	ok := map[string]string{
		"https://host/animal-details/abc":                                       "abc",
		"http://seuapp.com/animal-details/a5c0b78c-0f9c-4e8a-a75d-f192b1a1c9a6": "a5c0b78c-0f9c-4e8a-a75d-f192b1a1c9a6",
		"  https://host/animal-details/42?src=qr  ":                             "42",
		"https://host/x/y/z/mutum%20cavalo":                                     "mutum cavalo",
	}
	for in, want := range ok {
		id, err := ParsePayload(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, id, in)
		assert.Equal(t, "/animal-details/"+pathEscapeForTest(want), DetailsPath(id))
	}

	bad := []string{
		"",
		"hello",
		"mailto:someone@example.com",
		"https://",
		"https://host",
		"https://host/",
		"https://host/animal-details/",
		"https://host/animal-details/%2F",
		"://broken",
	}
	for _, in := range bad {
		_, err := ParsePayload(in)
		require.ErrorIs(t, err, ErrInvalidPayload, in)
	}
}

func pathEscapeForTest(s string) string {
	if s == "mutum cavalo" {
		return "mutum%20cavalo"
	}
	return s
}

func TestCameraErrorFromName(t *testing.T) {
	assert.ErrorIs(t, CameraErrorFromName("SecurityError", ""), ErrPermissionDenied)
	assert.ErrorIs(t, CameraErrorFromName("DevicesNotFoundError", "x"), ErrNoCamera)
	assert.ErrorIs(t, CameraErrorFromName("ConstraintNotSatisfiedError", ""), ErrConstraintUnsatisfiable)
	assert.ErrorIs(t, CameraErrorFromName("TrackStartError", ""), ErrDeviceBusy)
	assert.Equal(t, KindUnknown, ClassifyCameraError(CameraErrorFromName("AbortError", "aborted")))
}
