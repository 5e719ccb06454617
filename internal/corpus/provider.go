// Package corpus supplies decrypted vault entries to a search session. The
// file provider reads a plaintext YAML export and the watcher reports when
// that export changes on disk.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
)

// Provider returns the current searchable entries. Entries in the recycle
// bin are never returned.
type Provider interface {
	Entries(ctx context.Context) ([]vault.Entry, error)
}

// Static is a Provider over a fixed slice.
type Static []vault.Entry

func (s Static) Entries(ctx context.Context) ([]vault.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]vault.Entry, len(s))
	copy(out, s)
	return out, nil
}

// Export is the on-disk layout of a plaintext export.
type Export struct {
	Entries []Record `yaml:"entries"`
}

type Record struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Username string   `yaml:"username"`
	URL      string   `yaml:"url"`
	Notes    string   `yaml:"notes"`
	Tags     []string `yaml:"tags"`
	Recycled bool     `yaml:"recycled"`
}

type FileProvider struct {
	path   string
	logger *slog.Logger
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{
		path:   path,
		logger: slog.Default().With("component", "corpus"),
	}
}

func (p *FileProvider) Path() string {
	return p.path
}

// Entries reads and parses the export. A missing or unreadable file wraps
// ErrCorpusUnavailable; a malformed one wraps ErrInvalidInput.
func (p *FileProvider) Entries(ctx context.Context) ([]vault.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Newf(apperrors.ErrCorpusUnavailable, "export %s does not exist", p.path)
		}
		return nil, fmt.Errorf("reading export %s: %w: %w", p.path, apperrors.ErrCorpusUnavailable, err)
	}
	entries, recycled, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing export %s: %w", p.path, err)
	}
	p.logger.Debug("export loaded",
		"entries", len(entries),
		"recycled", recycled,
	)
	return entries, nil
}

// Parse decodes an export and returns its live entries along with the
// number of recycled entries it skipped.
func Parse(data []byte) ([]vault.Entry, int, error) {
	var export Export
	if err := yaml.Unmarshal(data, &export); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	entries := make([]vault.Entry, 0, len(export.Entries))
	recycled := 0
	for i, r := range export.Entries {
		if r.Recycled {
			recycled++
			continue
		}
		id, err := uuid.Parse(r.ID)
		if err != nil {
			return nil, 0, apperrors.Newf(apperrors.ErrInvalidInput, "entry %d: bad id %q: %v", i, r.ID, err)
		}
		entries = append(entries, vault.Entry{
			ID:       id,
			Title:    r.Title,
			Username: r.Username,
			URL:      r.URL,
			Notes:    r.Notes,
			Tags:     r.Tags,
		})
	}
	return entries, recycled, nil
}
