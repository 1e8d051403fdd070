package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"armybuilder/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *docstore.SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "armybuilder.db"))
	require.NoError(t, err)
	require.NoError(t, ApplyDDL(ctx, db, Schema()))
	st := NewStore(db)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreUpsertAndList(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, st.Put(ctx, docstore.Document{Kind: "unit", Key: "b", Version: 1, Body: []byte(`{"id":"b"}`)}))
	require.NoError(t, st.Put(ctx, docstore.Document{Kind: "unit", Key: "a", Version: 1, Body: []byte(`{"id":"a"}`)}))
	require.NoError(t, st.Put(ctx, docstore.Document{Kind: "unit", Key: "a", Version: 3, Body: []byte(`{"id":"a","points":9}`)}))
	require.NoError(t, st.Put(ctx, docstore.Document{Kind: "list", Key: "l1", Version: 1, Body: []byte(`{}`)}))

	docs, err := st.All(ctx, "unit")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Key)
	assert.EqualValues(t, 3, docs[0].Version)
	assert.JSONEq(t, `{"id":"a","points":9}`, string(docs[0].Body))
	assert.False(t, docs[0].UpdatedAt.IsZero())
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, st.Put(ctx, docstore.Document{Kind: "list", Key: "l1", Version: 1, Body: []byte(`{}`)}))
	require.NoError(t, st.Delete(ctx, "list", "l1"))
	// deleting a missing key is not an error
	require.NoError(t, st.Delete(ctx, "list", "l1"))

	docs, err := st.All(ctx, "list")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestApplyDDLIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, ApplyDDL(ctx, db, Schema()))
	require.NoError(t, ApplyDDL(ctx, db, Schema()))
}
