package blob

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUploadFailed       = errors.New("upload failed")
	ErrInvalidPayload     = errors.New("invalid payload")
)

const DataURIScheme = "data:"

// Payload is a decoded inline image.
type Payload struct {
	MIME string
	Data []byte
}

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/avif": "avif",
}

// ExtensionFor maps an image MIME type to a file extension. Unknown image
// types get "png".
func ExtensionFor(mime string) string {
	if ext, ok := extensions[strings.ToLower(mime)]; ok {
		return ext
	}
	return "png"
}

// IsDataURI reports whether s carries an inline payload.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, DataURIScheme)
}

// DecodeDataURI parses "data:<mime>;base64,<payload>". The decoded bytes must
// sniff as one of the raster types in extensions; the sniffed type wins over
// the declared one.
func DecodeDataURI(s string) (*Payload, error) {
	if !IsDataURI(s) {
		return nil, fmt.Errorf("%w: missing data scheme", ErrInvalidPayload)
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected header and payload, got %d parts", ErrInvalidPayload, len(parts))
	}

	header := strings.TrimPrefix(parts[0], DataURIScheme)
	declared, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: payload is not base64 encoded", ErrInvalidPayload)
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && !strings.HasPrefix(declared, "image/") {
		return nil, fmt.Errorf("%w: unsupported mime type %q", ErrInvalidPayload, declared)
	}

	encoded := strings.TrimSpace(parts[1])
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// some encoders drop the padding
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if rawErr != nil {
			return nil, fmt.Errorf("%w: decode base64: %v", ErrInvalidPayload, err)
		}
	}

	sniffed := mimetype.Detect(data)
	if !strings.HasPrefix(sniffed.String(), "image/") {
		return nil, fmt.Errorf("%w: content is %s, not an image", ErrInvalidPayload, sniffed.String())
	}
	// raster formats only; svg can carry script
	if _, ok := extensions[sniffed.String()]; !ok {
		return nil, fmt.Errorf("%w: image type %s is not accepted", ErrInvalidPayload, sniffed.String())
	}

	return &Payload{MIME: sniffed.String(), Data: data}, nil
}

// EncodeDataURI is the inverse of DecodeDataURI.
func EncodeDataURI(mime string, data []byte) string {
	return DataURIScheme + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
