package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty URL", func(t *testing.T) {
		t.Parallel()

		client, err := Open(ctx, "")
		require.ErrorIs(t, err, ErrEmptyConnectionURL)
		require.Nil(t, client)
	})

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgres://localhost:6379"} {
		t.Run("rejects "+url, func(t *testing.T) {
			t.Parallel()

			client, err := Open(ctx, url)
			require.ErrorIs(t, err, ErrFailedToParseURL)
			require.ErrorIs(t, err, ErrUnsupportedScheme)
			require.Nil(t, client)
		})
	}
}

func TestOpen_UnreachableServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := Open(ctx, "redis://127.0.0.1:1/0",
		WithRetry(1, time.Millisecond),
		WithTimeout(100*time.Millisecond),
	)
	require.ErrorIs(t, err, ErrConnectionFailed)
	require.Nil(t, client)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, ErrHealthcheckFailed)
}

type closer struct {
	err    error
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{}
	require.NoError(t, Shutdown(c)(context.Background()))
	require.True(t, c.closed)

	boom := errors.New("boom")
	require.ErrorIs(t, Shutdown(&closer{err: boom})(context.Background()), boom)
}
