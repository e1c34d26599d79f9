package restic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resticdu/internal/duc"
)

// fakeBinary writes an executable shell script standing in for restic and
// returns its path. Tests point Restic.Binary at it instead of shelling out
// to a real repository.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-restic")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestListSnapshotsParsesArray(t *testing.T) {
	bin := fakeBinary(t, `cat <<'EOF'
[
  {"id":"abc123","time":"2024-01-01T00:00:00Z","tree":"treehash","hostname":"h","username":"u","uid":1,"gid":2,"tags":["nightly"],"paths":["/home"],"excludes":["*.tmp"],"original_id":"orig","program_version":"restic 0.16.0"}
]
EOF
`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	snaps, err := r.ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "abc123", snaps[0].Hash)
	assert.Equal(t, "treehash", snaps[0].TreeHash)
	assert.Equal(t, []string{"nightly"}, snaps[0].Tags)
	assert.Equal(t, []string{"/home"}, snaps[0].IncludePaths)
	assert.Equal(t, []string{"*.tmp"}, snaps[0].ExcludePatterns)
}

func TestListSnapshotsEmptyRepo(t *testing.T) {
	bin := fakeBinary(t, `echo '[]'`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	snaps, err := r.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestListSnapshotsNonzeroExitCarriesStderr(t *testing.T) {
	bin := fakeBinary(t, `echo "wrong password" >&2; exit 1`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	_, err := r.ListSnapshots(context.Background())
	require.Error(t, err)
	var subErr *duc.SubprocessError
	require.True(t, errors.As(err, &subErr))
	assert.Contains(t, subErr.Stderr, "wrong password")
}

func TestStreamEntriesSkipsUnknownTypes(t *testing.T) {
	bin := fakeBinary(t, `cat <<'EOF'
{"type":"snapshot","id":"abc123"}
{"type":"dir","path":"/home","size":0}
{"type":"file","path":"/home/a.txt","size":42}
{"type":"symlink","path":"/home/link","size":0}
EOF
`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	stream, err := r.StreamEntries(context.Background(), "abc123")
	require.NoError(t, err)
	defer stream.Close()

	var records []duc.EntryRecord
	for stream.Next() {
		records = append(records, stream.Record())
	}
	require.NoError(t, stream.Err())
	require.Len(t, records, 2)
	assert.Equal(t, "/home", records[0].Path)
	assert.Equal(t, duc.EntryDir, records[0].Kind)
	assert.Equal(t, "/home/a.txt", records[1].Path)
	assert.Equal(t, int64(42), records[1].Size)
}

func TestStreamEntriesSubprocessFailureAfterPartialOutput(t *testing.T) {
	bin := fakeBinary(t, `echo '{"type":"file","path":"/a","size":1}'
echo "corrupt pack" >&2
exit 1
`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	stream, err := r.StreamEntries(context.Background(), "abc123")
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Next())
	assert.Equal(t, "/a", stream.Record().Path)
	assert.False(t, stream.Next())

	require.Error(t, stream.Err())
	var subErr *duc.SubprocessError
	require.True(t, errors.As(stream.Err(), &subErr))
	assert.Contains(t, subErr.Stderr, "corrupt pack")
}

func TestStreamEntriesParseErrorOnMalformedLine(t *testing.T) {
	bin := fakeBinary(t, `echo 'not json'`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	stream, err := r.StreamEntries(context.Background(), "abc123")
	require.NoError(t, err)
	defer stream.Close()

	assert.False(t, stream.Next())
	var parseErr *duc.ParseError
	require.True(t, errors.As(stream.Err(), &parseErr))
	assert.Equal(t, "abc123", parseErr.SnapshotHash)
}

func TestStreamEntriesCloseKillsRunningProcess(t *testing.T) {
	bin := fakeBinary(t, `echo '{"type":"file","path":"/a","size":1}'
sleep 5
`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	stream, err := r.StreamEntries(context.Background(), "abc123")
	require.NoError(t, err)

	require.True(t, stream.Next())
	require.NoError(t, stream.Close())
}

func TestStreamEntriesCloseEscalatesToKillAfterGracePeriod(t *testing.T) {
	orig := subprocessGracePeriod
	subprocessGracePeriod = 20 * time.Millisecond
	defer func() { subprocessGracePeriod = orig }()

	bin := fakeBinary(t, `trap '' TERM
echo '{"type":"file","path":"/a","size":1}'
sleep 5
`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	stream, err := r.StreamEntries(context.Background(), "abc123")
	require.NoError(t, err)

	require.True(t, stream.Next())
	start := time.Now()
	require.NoError(t, stream.Close())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRepositoryArgsRepoOrFile(t *testing.T) {
	r := Repository{Repo: "/repo"}
	assert.Equal(t, []string{"--repo", "/repo"}, r.args())

	r = Repository{File: "/etc/resticdu/repo-file"}
	assert.Equal(t, []string{"--repository-file", "/etc/resticdu/repo-file"}, r.args())
}

func TestPasswordArgs(t *testing.T) {
	assert.Equal(t, []string{"--password-command", "pass show repo"}, Password{Command: "pass show repo"}.args())
	assert.Equal(t, []string{"--password-file", "/secrets/pw"}, Password{File: "/secrets/pw"}.args())
	assert.Nil(t, Password{}.args())
}

func TestBuildArgsIncludesJSONAndNoCache(t *testing.T) {
	r := &Restic{Repository: Repository{Repo: "/repo"}, Password: Password{File: "/pw"}, NoCache: true}
	args := r.buildArgs("snapshots")
	assert.Equal(t, []string{"--repo", "/repo", "--password-file", "/pw", "--no-cache", "--json", "snapshots"}, args)
}

func TestRepositoryIDParsesConfig(t *testing.T) {
	bin := fakeBinary(t, `echo '{"id":"a1b2c3d4","version":2}'`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	id, err := r.RepositoryID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", id)
}

func TestRepositoryIDMissingIDIsError(t *testing.T) {
	bin := fakeBinary(t, `echo '{"version":2}'`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	_, err := r.RepositoryID(context.Background())
	require.Error(t, err)
}

func TestRepositoryIDNonzeroExitCarriesStderr(t *testing.T) {
	bin := fakeBinary(t, `echo "repository not found" >&2; exit 1`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}

	_, err := r.RepositoryID(context.Background())
	require.Error(t, err)
	var subErr *duc.SubprocessError
	require.True(t, errors.As(err, &subErr))
	assert.Contains(t, subErr.Stderr, "repository not found")
}

func TestCommandUsesContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(2 * time.Millisecond)

	bin := fakeBinary(t, `sleep 5`)
	r := &Restic{Repository: Repository{Repo: "/repo"}, Binary: bin}
	cmd := r.command(ctx, "snapshots")
	err := cmd.Run()
	assert.Error(t, err)
}
