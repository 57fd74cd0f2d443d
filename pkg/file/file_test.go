package file_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/file"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectContentType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "image/png", file.DetectContentType(pngHeader))
	assert.Equal(t, "text/plain", file.DetectContentType([]byte("hello")))
}

func TestIsImage(t *testing.T) {
	t.Parallel()
	assert.True(t, file.IsImage("image/png"))
	assert.True(t, file.IsImage("image/jpeg"))
	assert.False(t, file.IsImage("image/svg+xml"))
	assert.False(t, file.IsImage("text/html"))
	assert.Equal(t, ".webp", file.ExtensionFor("image/webp"))
	assert.Empty(t, file.ExtensionFor("text/html"))
}

func TestValidateMIMEType(t *testing.T) {
	t.Parallel()
	require.NoError(t, file.ValidateMIMEType("image/PNG", "image/png"))
	require.ErrorIs(t, file.ValidateMIMEType("text/html", "image/png"), file.ErrMIMETypeNotAllowed)
}

func TestReadLimited(t *testing.T) {
	t.Parallel()

	data, err := file.ReadLimited(bytes.NewReader(pngHeader), 64)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = file.ReadLimited(strings.NewReader(strings.Repeat("x", 65)), 64)
	require.ErrorIs(t, err, file.ErrFileTooLarge)

	_, err = file.ReadLimited(strings.NewReader(""), 64)
	require.ErrorIs(t, err, file.ErrEmptyFile)
}

func TestCleanKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "avatars/a.png", want: "avatars/a.png"},
		{in: "/avatars//a.png", want: "avatars/a.png"},
		{in: `avatars\a.png`, want: "avatars/a.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "avatars/../../x", wantErr: true},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := file.CleanKey(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, file.ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
