package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resticdu/internal/duc"
)

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"home", "alice", "file.txt"}, splitPath("/home/alice/file.txt"))
	assert.Nil(t, splitPath("/"))
	assert.Nil(t, splitPath(""))
	assert.Equal(t, []string{"home", "alice"}, splitPath("home/alice/"))
	// backslashes from a Windows-originated snapshot are normalized (spec.md §9's
	// resolved open question: forward slash always).
	assert.Equal(t, []string{"C:", "Users", "alice"}, splitPath(`C:\Users\alice`))
}

func TestInternIsIdempotent(t *testing.T) {
	c := openTestCache(t)
	tx, err := c.writeDB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	p := &pathInterner{tx: tx}
	id1, err := p.intern("/a/b/c")
	require.NoError(t, err)
	id2, err := p.intern("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestInternCreatesSharedAncestors(t *testing.T) {
	c := openTestCache(t)
	tx, err := c.writeDB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	p := &pathInterner{tx: tx}
	idAB, err := p.intern("/a/b")
	require.NoError(t, err)
	idAC, err := p.intern("/a/c")
	require.NoError(t, err)
	assert.NotEqual(t, idAB, idAC)

	var parentAB, parentAC duc.PathID
	require.NoError(t, tx.QueryRow(`SELECT parent_id FROM paths WHERE id = ?`, idAB).Scan(&parentAB))
	require.NoError(t, tx.QueryRow(`SELECT parent_id FROM paths WHERE id = ?`, idAC).Scan(&parentAC))
	assert.Equal(t, parentAB, parentAC, "siblings should share the same interned parent")
}

func TestResolvePathRoundTrip(t *testing.T) {
	c := openTestCache(t)
	tx, err := c.writeDB.Begin()
	require.NoError(t, err)

	p := &pathInterner{tx: tx}
	id, err := p.intern("/a/b/c")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	got, err := resolvePath(c.readDB, id)
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", got)
}

func TestResolvePathRoot(t *testing.T) {
	c := openTestCache(t)
	got, err := resolvePath(c.readDB, rootPathID)
	require.NoError(t, err)
	assert.Equal(t, "/", got)
}

func TestResolvePathIDNotFound(t *testing.T) {
	c := openTestCache(t)
	_, err := resolvePathID(c.readDB, "/never/interned")
	assert.ErrorIs(t, err, duc.ErrPathNotFound)
}
