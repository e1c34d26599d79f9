package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkMarksExcludeRoundTrip(t *testing.T) {
	out, run := newTestRoot(t)
	bin := fakeResticBinary(t, "repo-marks")

	require.NoError(t, run("config", "init", "-r", "/tmp/fake-repo"))

	require.NoError(t, run("mark", "/a/b/c.txt", "--binary", bin))
	out.Reset()
	require.NoError(t, run("mark", "/a/b/d.txt", "--binary", bin))
	out.Reset()

	require.NoError(t, run("marks", "--binary", bin))
	require.Equal(t, "/a/b/c.txt\n/a/b/d.txt\n", out.String())
	out.Reset()

	require.NoError(t, run("exclude", "--binary", bin))
	require.Equal(t, "/a/b/c.txt\n/a/b/d.txt\n", out.String())
	out.Reset()

	require.NoError(t, run("unmark", "/a/b/c.txt", "--binary", bin))
	out.Reset()
	require.NoError(t, run("marks", "--binary", bin))
	require.Equal(t, "/a/b/d.txt\n", out.String())
	out.Reset()

	require.NoError(t, run("clear-marks", "--binary", bin))
	out.Reset()
	require.NoError(t, run("marks", "--binary", bin))
	require.True(t, strings.TrimSpace(out.String()) == "")
}
