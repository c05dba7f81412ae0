package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "tahfidz", nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "recap:x", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "recap:x", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "recap:*"))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	assert.Equal(t, "tahfidz:recap:1", NewCacheRepository(nil, "tahfidz", nil).key("recap:1"))
	assert.Equal(t, "recap:1", NewCacheRepository(nil, "", nil).key("recap:1"))
}
