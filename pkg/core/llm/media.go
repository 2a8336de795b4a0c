package llm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid data URI: expected 'data:<mimetype>;base64,<encoded_data>'")

// Media is an inline attachment sent alongside a prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// ParseDataURI decodes a base64 data URI of the form
// data:<mimetype>[;<param>=<value>...];base64,<encoded_data>.
func ParseDataURI(uri string) (Media, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Media{}, ErrInvalidDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Media{}, ErrInvalidDataURI
	}
	// Parameters such as name=leaf.jpg may sit between the type and the
	// encoding, which is always the last token.
	params := strings.Split(header, ";")
	mime := strings.TrimSpace(params[0])
	if len(params) < 2 || mime == "" || !strings.EqualFold(strings.TrimSpace(params[len(params)-1]), "base64") {
		return Media{}, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return Media{MIMEType: strings.ToLower(mime), Data: data}, nil
}

// DataURI re-encodes m as a base64 data URI.
func (m Media) DataURI() string {
	return "data:" + m.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// IsImage reports whether the attachment carries an image MIME type.
func (m Media) IsImage() bool {
	return strings.HasPrefix(m.MIMEType, "image/")
}

// Extension returns the subtype of the MIME type ("jpeg" for image/jpeg).
func (m Media) Extension() string {
	_, sub, ok := strings.Cut(m.MIMEType, "/")
	if !ok {
		return "bin"
	}
	sub, _, _ = strings.Cut(sub, ";")
	return sub
}
