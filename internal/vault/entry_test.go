package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryHostnameAndPath(t *testing.T) {
	tests := []struct {
		name string
		url  string
		host string
		path string
	}{
		{"scheme and www", "https://www.example.com/login", "example.com", "/login"},
		{"plain http", "http://intranet.local", "intranet.local", ""},
		{"no scheme", "github.com/settings/keys", "github.com", "/settings/keys"},
		{"trailing slash", "https://gitlab.com/", "gitlab.com", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{URL: tt.url}
			assert.Equal(t, tt.host, e.Hostname())
			assert.Equal(t, tt.path, e.Path())
		})
	}
}
