package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/degree-pathway-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "pathway")
	ctx := context.Background()

	var dest map[string]float64
	assert.ErrorIs(t, repo.Get(ctx, "summary", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "summary", map[string]float64{"x": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "summary:*"))
	assert.NoError(t, repo.Close())
	assert.Equal(t, "pathway:summary", repo.key("summary"))
}
