package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
)

func entryID(n int) vault.EntryID {
	return uuid.UUID{14: byte(n >> 8), 15: byte(n)}
}

func sampleCorpus() []vault.Entry {
	return []vault.Entry{
		{ID: entryID(1), Title: "GitHub", Username: "alice", URL: "https://github.com"},
		{ID: entryID(2), Title: "GitLab", Username: "bob", URL: "https://gitlab.com"},
		{ID: entryID(3), Title: "Work mail", URL: "https://mail.example.net", Notes: "mail mail", Tags: []string{"Work"}},
	}
}

func newTestBuilder(t *testing.T, workers int) *Builder {
	t.Helper()
	b, err := NewBuilder(workers)
	require.NoError(t, err)
	t.Cleanup(b.Release)
	return b
}

func TestBuildCounts(t *testing.T) {
	ix, err := newTestBuilder(t, 4).Build(context.Background(), sampleCorpus())
	require.NoError(t, err)

	assert.Equal(t, 3, ix.TotalEntry())
	// entry 1: github, https
	// entry 2: gitlab, https
	// entry 3: work, mail, https, example
	assert.Equal(t, int64(8), ix.TotalToken())
	assert.Equal(t, 6, ix.Terms())
	assert.Equal(t, 3, ix.DocFreq("https"))
	assert.Equal(t, 2, ix.DocFreq("gitlab") + ix.DocFreq("github"))
}

func TestBuildFrequencies(t *testing.T) {
	ix := Build(sampleCorpus())

	mail := ix.Postings("mail")
	require.Len(t, mail, 1)
	assert.Equal(t, entryID(3), mail[0].EntryID)
	// title, notes twice, url
	assert.Equal(t, 4, mail[0].Frequency)

	work := ix.Postings("work")
	require.Len(t, work, 1)
	// title word plus the lower-cased tag
	assert.Equal(t, 2, work[0].Frequency)
}

func TestBuildNeverIndexesStopWords(t *testing.T) {
	ix := Build(sampleCorpus())
	for _, stop := range []string{"com", "net", "org"} {
		assert.False(t, ix.Contains(stop), stop)
	}
}

func TestBuildTagsAreAtomic(t *testing.T) {
	ix := Build([]vault.Entry{
		{ID: entryID(1), Tags: []string{"Two Words", "work"}},
	})
	assert.True(t, ix.Contains("two words"))
	assert.True(t, ix.Contains("work"))
	assert.False(t, ix.Contains("two"))
	assert.False(t, ix.Contains("wo"))
}

func TestBuildEmptyCorpus(t *testing.T) {
	b := newTestBuilder(t, 2)

	ix, err := b.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.TotalEntry())
	assert.Equal(t, int64(0), ix.TotalToken())
	assert.Nil(t, ix.Postings("anything"))
	assert.Empty(t, ix.Snapshot())
}

func TestBuildSkipsMissingAndDuplicateIDs(t *testing.T) {
	ix := Build([]vault.Entry{
		{Title: "orphan"},
		{ID: entryID(1), Title: "first"},
		{ID: entryID(1), Title: "second"},
	})
	assert.Equal(t, 1, ix.TotalEntry())
	assert.True(t, ix.Contains("first"))
	assert.False(t, ix.Contains("second"))
	assert.False(t, ix.Contains("orphan"))
}

func TestBuildParallelMatchesSequential(t *testing.T) {
	entries := make([]vault.Entry, 0, 500)
	words := []string{"bank", "mail", "router", "cloud", "forum", "shop", "vpn"}
	for i := 1; i <= 500; i++ {
		entries = append(entries, vault.Entry{
			ID:    entryID(i),
			Title: fmt.Sprintf("%s %s %d", words[i%len(words)], words[(i*3)%len(words)], i),
			URL:   fmt.Sprintf("https://%s.example.org/%d", words[(i+1)%len(words)], i),
			Notes: words[(i+2)%len(words)],
			Tags:  []string{words[i%3]},
		})
	}

	parallel, err := newTestBuilder(t, 8).Build(context.Background(), entries)
	require.NoError(t, err)
	sequential := Build(entries)

	assert.Equal(t, sequential.TotalEntry(), parallel.TotalEntry())
	assert.Equal(t, sequential.TotalToken(), parallel.TotalToken())
	assert.Equal(t, sequential.Snapshot(), parallel.Snapshot())
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ix, err := newTestBuilder(t, 2).Build(ctx, sampleCorpus())
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ix)
}

func TestBuildAfterReleaseFallsBackInline(t *testing.T) {
	b, err := NewBuilder(1)
	require.NoError(t, err)
	b.Release()

	ix, err := b.Build(context.Background(), sampleCorpus())
	require.NoError(t, err)
	assert.Equal(t, 3, ix.TotalEntry())
}

func TestSnapshotOrdering(t *testing.T) {
	ix := Build([]vault.Entry{
		{ID: entryID(2), Title: "beta alpha"},
		{ID: entryID(1), Title: "alpha"},
	})
	snap := ix.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alpha", snap[0].Term)
	assert.Equal(t, "beta", snap[1].Term)
	require.Len(t, snap[0].Postings, 2)
	assert.Equal(t, entryID(1), snap[0].Postings[0].EntryID)
	assert.Equal(t, entryID(2), snap[0].Postings[1].EntryID)
}
