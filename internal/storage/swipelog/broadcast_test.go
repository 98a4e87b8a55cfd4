package storage_swipelog

import (
	"context"
	"testing"
	"time"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type BroadcastUnitSuite struct {
	suite.Suite
}

func (s *BroadcastUnitSuite) TestPublish(t provider.T) {
	t.Run("Should wake every listener", func(t provider.T) {
		b := NewBroadcast()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		first, err := b.Listen(ctx)
		require.NoError(t, err)
		second, err := b.Listen(ctx)
		require.NoError(t, err)

		require.NoError(t, b.Publish(ctx))

		for _, ch := range []<-chan struct{}{first, second} {
			select {
			case <-ch:
			case <-time.After(time.Second):
				t.Errorf("listener not notified")
			}
		}
	})

	t.Run("Should coalesce bursts without blocking", func(t provider.T) {
		b := NewBroadcast()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := b.Listen(ctx)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			require.NoError(t, b.Publish(ctx))
		}

		<-ch
		select {
		case <-ch:
			t.Errorf("burst was not coalesced")
		default:
		}
	})
}

func (s *BroadcastUnitSuite) TestListenStopsWithContext(t provider.T) {
	b := NewBroadcast()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers())
}

func TestBroadcastUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(BroadcastUnitSuite))
}
