package blob

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
const testPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func testPNG(t *testing.T) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(testPNGBase64)
	require.NoError(t, err)
	return b
}

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expectMIME  string
	}{
		{
			name:       "valid png",
			input:      "data:image/png;base64," + testPNGBase64,
			expectMIME: "image/png",
		},
		{
			name:       "declared type differs from content",
			input:      "data:image/jpeg;base64," + testPNGBase64,
			expectMIME: "image/png",
		},
		{
			name:       "missing padding",
			input:      "data:image/png;base64," + strings.TrimRight(testPNGBase64, "="),
			expectMIME: "image/png",
		},
		{
			name:        "no data scheme",
			input:       "https://example.com/a.png",
			expectError: true,
		},
		{
			name:        "no comma",
			input:       "data:image/png;base64" + testPNGBase64,
			expectError: true,
		},
		{
			name:        "extra comma",
			input:       "data:image/png;base64," + testPNGBase64 + ",AAAA",
			expectError: true,
		},
		{
			name:        "not base64 encoded",
			input:       "data:image/png," + testPNGBase64,
			expectError: true,
		},
		{
			name:        "corrupted base64",
			input:       "data:image/png;base64,@@@not-base64@@@",
			expectError: true,
		},
		{
			name:        "empty payload",
			input:       "data:image/png;base64,",
			expectError: true,
		},
		{
			name:        "non image mime",
			input:       "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello")),
			expectError: true,
		},
		{
			name:        "svg declared as png",
			input:       EncodeDataURI("image/png", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)),
			expectError: true,
		},
		{
			name:        "declared svg",
			input:       EncodeDataURI("image/svg+xml", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)),
			expectError: true,
		},
		{
			name:        "decodes but is not an image",
			input:       "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("plain text, not pixels")),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeDataURI(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidPayload)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectMIME, p.MIME)
			assert.NotEmpty(t, p.Data)
		})
	}
}

func TestEncodeDataURI_RoundTrip(t *testing.T) {
	png := testPNG(t)
	uri := EncodeDataURI("image/png", png)

	assert.True(t, IsDataURI(uri))
	p, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, png, p.Data)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, "jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, "jpg", ExtensionFor("image/JPG"))
	assert.Equal(t, "png", ExtensionFor("image/png"))
	assert.Equal(t, "webp", ExtensionFor("image/webp"))
	assert.Equal(t, "gif", ExtensionFor("image/gif"))
	assert.Equal(t, "png", ExtensionFor("image/x-unknown"))
}

func TestNewObjectKey(t *testing.T) {
	a := NewObjectKey("owner-1", "render", "png")
	b := NewObjectKey("owner-1", "render", "png")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "designs/owner-1/render/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
}

func TestNewObjectKey_SanitizesSegments(t *testing.T) {
	key := NewObjectKey("../evil", "front view", "jpg")
	assert.True(t, strings.HasPrefix(key, "designs/_evil/front-view/"), key)
}
