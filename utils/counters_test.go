package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextNumber(t *testing.T) {
	m := useMemoryStore(t)
	ctx := context.Background()

	assert.Equal(t, 1, NextNumber(ctx, "counter-guild", "ticket"))
	assert.Equal(t, 2, NextNumber(ctx, "counter-guild", "ticket"))
	assert.Equal(t, 1, NextNumber(ctx, "counter-guild", "suggestion"))

	// local numbering continues past what the store handed out
	DB = failingStore{m}
	assert.Equal(t, 3, NextNumber(ctx, "counter-guild", "ticket"))
	assert.Equal(t, 4, NextNumber(ctx, "counter-guild", "ticket"))
}
