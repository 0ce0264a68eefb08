// File: internal/proxy/proxy_test.go
package proxy

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Descriptor
	}{
		{
			name: "bare host port",
			line: "10.0.0.1:8080",
			want: Descriptor{Protocol: "http", Host: "10.0.0.1", Port: 8080},
		},
		{
			name: "credentials at host",
			line: "alice:s3cret@proxy.example.com:3128",
			want: Descriptor{Protocol: "http", Host: "proxy.example.com", Port: 3128, Username: "alice", Password: "s3cret"},
		},
		{
			name: "full url",
			line: "socks5://10.0.0.2:1080",
			want: Descriptor{Protocol: "socks5", Host: "10.0.0.2", Port: 1080},
		},
		{
			name: "full url with credentials",
			line: "http://bob:pw@10.0.0.3:8000",
			want: Descriptor{Protocol: "http", Host: "10.0.0.3", Port: 8000, Username: "bob", Password: "pw"},
		},
		{
			name: "space separated credentials",
			line: "10.0.0.4:8080 carol:pass123",
			want: Descriptor{Protocol: "http", Host: "10.0.0.4", Port: 8080, Username: "carol", Password: "pass123"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	for _, line := range []string{
		"no-port-here",
		"host:notaport",
		"host:99999",
		"ftp://10.0.0.1:21",
		"user@host:8080",
		"a b c",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseLine(line)
			assert.Error(t, err)
		})
	}
}

func TestDescriptorMasked(t *testing.T) {
	d := Descriptor{Protocol: "http", Host: "h", Port: 1, Username: "u", Password: "topsecret"}
	assert.NotContains(t, d.Masked(), "topsecret")
	assert.NotContains(t, d.URL(), "topsecret")
}

func TestPoolLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proxies.txt")
	content := "# comment\n10.0.0.1:8080\n\nbroken-line\nalice:pw@10.0.0.2:3128\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p := NewPool(rand.New(rand.NewSource(1)), zaptest.NewLogger(t))
	require.NoError(t, p.Load(path))
	assert.Equal(t, 2, p.Size())

	d, ok := p.Pick()
	require.True(t, ok)
	assert.NotEmpty(t, d.Host)
}

func TestPoolMissingFileIsEmptyNotError(t *testing.T) {
	p := NewPool(rand.New(rand.NewSource(1)), zaptest.NewLogger(t))
	require.NoError(t, p.Load(filepath.Join(t.TempDir(), "absent.txt")))
	assert.Equal(t, 0, p.Size())

	_, ok := p.Pick()
	assert.False(t, ok)
}
