package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Captured frames and generated stills travel through the pipeline as data
// URIs, the same representation the capture collaborator hands over.

var ErrNotDataURI = errors.New("imaging: not a base64 data URI")

// EncodeDataURI wraps raw bytes in a base64 data URI with the given MIME type.
func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// MIMEType reports the MIME type of a data URI without decoding the payload.
func MIMEType(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	meta, _, ok := strings.Cut(rest, ",")
	if !ok {
		return ""
	}
	return strings.TrimSuffix(meta, ";base64")
}

// DecodeDataURI splits a base64 data URI into its MIME type and raw bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURI
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, ErrNotDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("imaging: decode data URI payload: %w", err)
	}
	if mimeType == "" {
		mimeType = "text/plain"
	}
	return mimeType, data, nil
}
