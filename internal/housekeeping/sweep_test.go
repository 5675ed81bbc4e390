package housekeeping

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepNow_RemovesOnlyStaleFiles(t *testing.T) {
	dir := t.TempDir()

	stalePath := filepath.Join(dir, "stale.tmp")
	freshPath := filepath.Join(dir, "fresh.tmp")
	require.NoError(t, os.WriteFile(stalePath, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(freshPath, []byte("x"), 0o600))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	s, err := New([]string{dir}, time.Hour, zap.NewNop())
	require.NoError(t, err)
	s.WithMaxAge(time.Hour)

	s.SweepNow()

	_, err = os.Stat(stalePath)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}

func TestSweepNow_IgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o700))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(sub, old, old))

	s, err := New([]string{dir}, time.Hour, zap.NewNop())
	require.NoError(t, err)
	s.WithMaxAge(time.Hour)

	s.SweepNow()

	_, err = os.Stat(sub)
	assert.NoError(t, err)
}

func TestSweepNow_SkipsUnreadableDirectory(t *testing.T) {
	s, err := New([]string{filepath.Join(t.TempDir(), "does-not-exist")}, time.Hour, zap.NewNop())
	require.NoError(t, err)
	assert.NotPanics(t, func() { s.SweepNow() })
}
