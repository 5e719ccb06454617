// Package vault defines the credential records handed to the search core by
// the unlocked vault. The search packages only ever keep EntryIDs; the
// Entry values themselves stay owned by the vault/session layer.
package vault

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// EntryID identifies an entry within one vault. KeePass databases assign a
// UUID to every entry, and that UUID is stable across edits and syncs.
type EntryID = uuid.UUID

// Entry is one decrypted credential record. The password is deliberately
// absent: nothing in the search path may see it.
type Entry struct {
	ID       EntryID
	Title    string
	Username string
	URL      string
	Notes    string
	Tags     []string
}

var schemePrefix = regexp.MustCompile(`^https?://(www\.)?`)

// Hostname returns the URL without scheme, leading "www." or path, e.g.
// "https://www.example.com/login" becomes "example.com".
func (e Entry) Hostname() string {
	clean := schemePrefix.ReplaceAllString(e.URL, "")
	host, _, _ := strings.Cut(clean, "/")
	return host
}

// Path returns the part of the URL after the hostname, including the
// leading slash, or "" when the URL has no meaningful path.
func (e Entry) Path() string {
	clean := schemePrefix.ReplaceAllString(e.URL, "")
	_, path, found := strings.Cut(clean, "/")
	if !found || strings.TrimSpace(path) == "" {
		return ""
	}
	return "/" + path
}
