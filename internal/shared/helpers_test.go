package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, expected string
	}{
		{"http://m1", "archives/pkg-1.0.tar.gz", "http://m1/archives/pkg-1.0.tar.gz"},
		{"http://m1/", "/archives/pkg-1.0.tar.gz", "http://m1/archives/pkg-1.0.tar.gz"},
		{"http://m1//", "packages/pkg.json", "http://m1/packages/pkg.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, JoinURL(tt.base, tt.path))
	}
}

func TestWithinRoot(t *testing.T) {
	assert.True(t, WithinRoot("/opt/pkg", "/opt/pkg"))
	assert.True(t, WithinRoot("/opt/pkg", "/opt/pkg/bin/tool"))
	assert.True(t, WithinRoot("/opt/pkg/", "/opt/pkg/a/../b"))
	assert.False(t, WithinRoot("/opt/pkg", "/opt/pkg-other/tool"))
	assert.False(t, WithinRoot("/opt/pkg", "/opt/pkg/../etc/passwd"))
}
