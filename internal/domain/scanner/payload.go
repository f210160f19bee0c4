package scanner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid code")

// DetailsPath es la ruta local de la ficha de un animal.
func DetailsPath(id string) string {
	return "/animal-details/" + url.PathEscape(id)
}

// ParsePayload espera una URL absoluta (http/https) cuyo último segmento es el id del animal.
func ParsePayload(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	u, err := url.Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: not an http url", ErrInvalidPayload)
	}

	segments := strings.Split(u.EscapedPath(), "/")
	last := segments[len(segments)-1]

	id, err := url.PathUnescape(last)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validID(id); err != nil {
		return "", err
	}
	return id, nil
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidPayload)
	}
	if id != strings.TrimSpace(id) || strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: malformed identifier", ErrInvalidPayload)
	}
	return nil
}
