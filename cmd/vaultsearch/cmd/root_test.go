package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/health"
)

const testExport = `
entries:
  - id: 00000000-0000-0000-0000-000000000001
    title: GitHub
    username: alice
    url: https://github.com/login
  - id: 00000000-0000-0000-0000-000000000002
    title: GitLab
    username: bob
    url: https://www.gitlab.com
    tags: [work]
  - id: 00000000-0000-0000-0000-000000000003
    title: Old GitHub
    recycled: true
`

func writeTestExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testExport), 0o600))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchCmd(t *testing.T) {
	out, err := run(t, "", "search", "github", "--corpus", writeTestExport(t))
	require.NoError(t, err)
	assert.Contains(t, out, "GitHub  [alice]  github.com")
	assert.NotContains(t, out, "GitLab")
	assert.NotContains(t, out, "Old GitHub")
}

func TestSearchCmdJSON(t *testing.T) {
	out, err := run(t, "", "search", "work", "--corpus", writeTestExport(t), "--format", "json")
	require.NoError(t, err)

	var views []entryView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "GitLab", views[0].Title)
	assert.Equal(t, "gitlab.com", views[0].Host)
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", views[0].ID)
}

func TestSearchCmdRequiresQuery(t *testing.T) {
	_, err := run(t, "", "search", "--corpus", writeTestExport(t))
	require.Error(t, err)
}

func TestSearchCmdRequiresCorpus(t *testing.T) {
	_, err := run(t, "", "search", "github")
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))
}

func TestSearchCmdMissingCorpus(t *testing.T) {
	_, err := run(t, "", "search", "github", "--corpus", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ExitUnavailable, apperrors.ExitCode(err))
}

func TestBadFormat(t *testing.T) {
	_, err := run(t, "", "stats", "--corpus", writeTestExport(t), "--format", "xml")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFilterCmd(t *testing.T) {
	path := writeTestExport(t)

	out, err := run(t, "", "filter", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1. GitHub")
	assert.Contains(t, out, "2. GitLab")

	out, err = run(t, "", "filter", "BOB", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "GitLab")
	assert.NotContains(t, out, "GitHub")

	out, err = run(t, "", "filter", "zzz", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "no matching entries")
}

func TestAutofillCmd(t *testing.T) {
	path := writeTestExport(t)

	out, err := run(t, "", "autofill", "--domain", "gitlab.com", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "GitLab")
	assert.NotContains(t, out, "GitHub")

	_, err = run(t, "", "autofill", "--corpus", path)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStatsCmd(t *testing.T) {
	out, err := run(t, "", "stats", "--corpus", writeTestExport(t), "--format", "json")
	require.NoError(t, err)

	var st indexStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 2, st.Entries)
	assert.Greater(t, st.Terms, 0)
	assert.GreaterOrEqual(t, st.Postings, int64(st.Terms))
}

func TestServeREPL(t *testing.T) {
	stdin := strings.Join([]string{
		"github",
		"/filter bob",
		"/lock",
		"github",
		"/unlock",
		"/stats",
		"/quit",
		"never reached",
	}, "\n")
	out, err := run(t, stdin, "serve", "--corpus", writeTestExport(t))
	require.NoError(t, err)

	lockAt := strings.Index(out, "\nlocked\n")
	unlockAt := strings.Index(out, "\nunlocked\n")
	require.Positive(t, lockAt)
	require.Greater(t, unlockAt, lockAt)

	assert.Contains(t, out[:lockAt], "GitHub")
	assert.Contains(t, out[:lockAt], "GitLab")
	assert.Contains(t, out[lockAt:unlockAt], "no matching entries")
	assert.Contains(t, out[unlockAt:], "entries: 2")
}

func TestNotifyRejectsUnknownEvent(t *testing.T) {
	_, err := run(t, "", "notify", "exploded")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestHealthChecker(t *testing.T) {
	root := &rootOptions{corpusPath: writeTestExport(t), format: "text"}
	require.NoError(t, root.load(io.Discard))
	s, p, err := root.openSession(context.Background())
	require.NoError(t, err)
	defer s.Close()

	checker := newChecker(s, p)
	assert.Equal(t, health.StatusUp, checker.Run(context.Background()).Status)

	s.Lock()
	assert.Equal(t, health.StatusDegraded, checker.Run(context.Background()).Status)

	require.NoError(t, os.Remove(p.Path()))
	assert.Equal(t, health.StatusDown, checker.Run(context.Background()).Status)
}
