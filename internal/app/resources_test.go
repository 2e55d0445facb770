package app

import (
	"testing"

	"github.com/dkeye/cowork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestResourceTree_CreateValidation(t *testing.T) {
	tree := NewResourceTree()

	_, err := tree.Create(domain.Resource{Kind: domain.KindFile, RoomID: "r1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = tree.Create(domain.Resource{ID: "x", Kind: "symlink", RoomID: "r1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	res, err := tree.Create(domain.Resource{ID: "f1", Kind: domain.KindFile, Name: "a.txt", RoomID: "r1", Content: strptr("hi")})
	require.NoError(t, err)
	assert.False(t, res.CreatedAt.IsZero())
	assert.Equal(t, "hi", *res.Content)

	_, err = tree.Create(domain.Resource{ID: "f1", Kind: domain.KindFile, RoomID: "r1"})
	assert.ErrorIs(t, err, domain.ErrResourceExists)

	// parent must be a directory of the same room
	_, err = tree.Create(domain.Resource{ID: "f2", Kind: domain.KindFile, ParentID: "f1", RoomID: "r1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = tree.Create(domain.Resource{ID: "d1", Kind: domain.KindDirectory, RoomID: "r2"})
	require.NoError(t, err)
	_, err = tree.Create(domain.Resource{ID: "f3", Kind: domain.KindFile, ParentID: "d1", RoomID: "r1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResourceTree_UpdateContent(t *testing.T) {
	tree := NewResourceTree()
	_, _ = tree.Create(domain.Resource{ID: "f1", Kind: domain.KindFile, RoomID: "r1"})
	_, _ = tree.Create(domain.Resource{ID: "d1", Kind: domain.KindDirectory, RoomID: "r1"})

	res, err := tree.UpdateContent("f1", "new")
	require.NoError(t, err)
	assert.Equal(t, "new", *res.Content)
	assert.Equal(t, uint64(2), res.Version)

	got, ok := tree.Get("f1")
	require.True(t, ok)
	assert.Equal(t, "new", *got.Content)

	// returned copies do not alias the stored record
	*got.Content = "mutated"
	again, _ := tree.Get("f1")
	assert.Equal(t, "new", *again.Content)

	_, err = tree.UpdateContent("d1", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = tree.UpdateContent("missing", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResourceTree_RemoveCascades(t *testing.T) {
	tree := NewResourceTree()
	for _, r := range []domain.Resource{
		{ID: "root", Kind: domain.KindDirectory, RoomID: "r1"},
		{ID: "sub", Kind: domain.KindDirectory, ParentID: "root", RoomID: "r1"},
		{ID: "leaf", Kind: domain.KindFile, ParentID: "sub", RoomID: "r1"},
		{ID: "other", Kind: domain.KindFile, RoomID: "r1"},
	} {
		_, err := tree.Create(r)
		require.NoError(t, err)
	}

	assert.ElementsMatch(t, []string{"sub", "leaf"}, tree.Descendants("root"))
	assert.Empty(t, tree.Descendants("leaf"))

	removed := tree.Remove("root")
	assert.Equal(t, []string{"leaf", "sub", "root"}, removed)
	for _, id := range removed {
		_, ok := tree.Get(id)
		assert.False(t, ok, id)
	}
	_, ok := tree.Get("other")
	assert.True(t, ok)

	assert.Nil(t, tree.Remove("root"))
}

func TestResourceTree_InRoomOrdering(t *testing.T) {
	tree := NewResourceTree()
	_, _ = tree.Create(domain.Resource{ID: "3", Kind: domain.KindFile, Name: "b", RoomID: "r1"})
	_, _ = tree.Create(domain.Resource{ID: "2", Kind: domain.KindFile, Name: "a", RoomID: "r1"})
	_, _ = tree.Create(domain.Resource{ID: "1", Kind: domain.KindDirectory, Name: "z", RoomID: "r1"})
	_, _ = tree.Create(domain.Resource{ID: "4", Kind: domain.KindFile, Name: "a", RoomID: "r2"})

	var ids []string
	for _, r := range tree.InRoom("r1") {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Empty(t, tree.InRoom("r3"))
}
