package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "old", &domain.Snapshot{
		State:    []byte("r"),
		Children: []domain.ChildSnapshot{{ID: domain.NewIdentity("job", "a"), Snapshot: &domain.Snapshot{State: []byte{1}}}},
	}))
	require.NoError(t, store.Save(ctx, "new", &domain.Snapshot{
		State:    []byte("r"),
		Children: []domain.ChildSnapshot{{ID: domain.NewIdentity("job", "b"), Snapshot: &domain.Snapshot{State: []byte{1}}}},
	}))
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "canopy version "+canopy.Version+"\n", out)
}

func TestSessionCommands(t *testing.T) {
	dir := seed(t)
	store := []string{"--store", "file", "--store-dir", dir}

	out, err := run(t, append([]string{"session", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "Sessions:\n- new\n- old\n", out)

	out, err = run(t, append([]string{"session", "inspect", "old"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "# Session old")
	assert.Contains(t, out, "| `/job#a` | 0 | 1 B | `01` |")

	out, err = run(t, append([]string{"session", "inspect", "old", "--json"}, store...)...)
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Children, 1)

	out, err = run(t, append([]string{"session", "diff", "old", "new"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "+ /job#b (added)\n- /job#a (removed)\n", out)

	out, err = run(t, append([]string{"session", "graph", "new", "--against", "old"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "class n1 added;")

	_, err = run(t, append([]string{"session", "inspect", "missing", "--json=false"}, store...)...)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	out, err = run(t, append([]string{"session", "rm", "--all"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'new'")
	assert.Contains(t, out, "Removed session 'old'")

	out, err = run(t, append([]string{"session", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "No sessions found.\n", out)
}

func TestDemo(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "demo", "--store", "file", "--store-dir", dir,
		"--session", "ci", "--jobs", "a,b", "--steps", "1", "--interval", "1ms", "--fresh")
	require.NoError(t, err)
	assert.Contains(t, out, "running: a 0/1, b 0/1")
	assert.Contains(t, out, "(2/2)")

	// The finished session is stored and not rerun.
	out, err = run(t, "demo", "--store", "file", "--store-dir", dir,
		"--session", "ci", "--jobs", "a,b", "--steps", "1", "--interval", "1ms", "--fresh=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Session 'ci' already finished")
}

func TestInvalidStore(t *testing.T) {
	_, err := run(t, "session", "ls", "--store", "tape")
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestMCPUnknownTransport(t *testing.T) {
	_, err := run(t, "mcp", "--store", "memory", "--transport", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown transport")
}
