package store

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store backed by a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := New(t.TempDir(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
