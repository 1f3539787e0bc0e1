package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivolynets/spacesim/internal/testutil"
)

// openTestStore opens a store in a temp dir with sequential run IDs.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "telemetry.db"), WithIDGenerator(testutil.NewSequentialRunIDs("run")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
