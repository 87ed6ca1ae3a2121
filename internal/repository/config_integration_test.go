package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/database"
	"github.com/symlinkgmbh/eco-os-ms-service-conf/internal/testing/testdb"
)

func TestConfigRepository_Integration_Lifecycle(t *testing.T) {
	tdb := testdb.New(t)
	defer tdb.Close()

	repo := NewConfigRepository(tdb.DB)
	ctx := context.Background()

	missing, err := repo.Get(ctx, "redis")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.Create(ctx, "redis", "redis:6379")
	require.NoError(t, err)
	assert.Equal(t, "redis", created.Key)
	assert.Equal(t, "redis:6379", created.Content)

	_, err = repo.Create(ctx, "redis", "other")
	assert.ErrorIs(t, err, database.ErrDuplicate)

	updated, err := repo.Update(ctx, "redis", map[string]interface{}{"host": "cache", "port": 6379})
	require.NoError(t, err)
	content, ok := updated.Content.(map[string]interface{})
	require.True(t, ok, "content should be an object, got %T", updated.Content)
	assert.Equal(t, "cache", content["host"])

	_, err = repo.Update(ctx, "nope", "x")
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = repo.Create(ctx, "auth", map[string]interface{}{"ttl": 3600})
	require.NoError(t, err)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "redis", all[0].Key)
	assert.Equal(t, "auth", all[1].Key)

	require.NoError(t, repo.Delete(ctx, "redis"))
	assert.ErrorIs(t, repo.Delete(ctx, "redis"), database.ErrNotFound)

	require.NoError(t, repo.DeleteAll(ctx))
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
