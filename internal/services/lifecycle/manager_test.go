package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManager_ShutdownRunsHooksInReverse(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	for _, name := range []string{"postgres", "publisher", "http"} {
		name := name
		m.Register(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.Register("ignored", nil)

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "publisher", "postgres"}, order)

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3, "hooks run once")
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := New(time.Second, nil)
	first := errors.New("redis close")
	second := errors.New("bolt close")
	m.Register("redis", func(context.Context) error { return first })
	m.Register("bolt", func(context.Context) error { return second })

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestManager_ShutdownHonoursTimeout(t *testing.T) {
	m := New(10*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, m.Shutdown(context.Background()), context.DeadlineExceeded)
}

func TestManager_SignalContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := New(0, nil).SignalContext(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled with parent")
	}
}
