package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var dest map[string]int
	hit, err := c.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, dest)
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestNewRedis_UnreachableFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	rc, err := NewRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
	assert.Nil(t, rc)
}
