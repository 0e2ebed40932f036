package application_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pooldraw-network/pooldraw/internal/core/application"
	"github.com/pooldraw-network/pooldraw/internal/core/domain"
	dispatcher "github.com/pooldraw-network/pooldraw/internal/infrastructure/dispatcher/loopback"
	"github.com/stretchr/testify/require"
)

var (
	destinationChainId = uint64(10)
	remoteOwner        = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	remoteListener     = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

func TestCrossChainRelayer(t *testing.T) {
	ctx := context.Background()

	t.Run("new", func(t *testing.T) {
		transport := dispatcher.NewService()
		clock := newFakeClock(genesis)

		_, err := application.NewCrossChainRelayer(
			transport, clock, destinationChainId, common.Address{}, remoteListener,
		)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrZeroAddress)

		_, err = application.NewCrossChainRelayer(
			transport, clock, destinationChainId, remoteOwner, common.Address{},
		)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrZeroAddress)
	})

	t.Run("dispatch_and_settle", func(t *testing.T) {
		transport := dispatcher.NewService()
		relayer, err := application.NewCrossChainRelayer(
			transport, newFakeClock(genesis), destinationChainId, remoteOwner, remoteListener,
		)
		require.NoError(t, err)

		auction := completedAuction(t, "0.1", "0.2")
		events, err := relayer.OnDrawFinalized(ctx, auction)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.True(t, auction.IsEnded())

		event, ok := events[0].(domain.RelayDispatched)
		require.True(t, ok)
		require.Equal(t, destinationChainId, event.DestinationChainId)
		require.Equal(t, remoteOwner, event.RemoteOwner)
		require.Equal(t, remoteListener, event.RemoteListener)
		require.Equal(t, bob, event.Recipient)

		messages := transport.Messages()
		require.Len(t, messages, 1)
		require.Equal(t, event.MessageId, messages[0].MessageId)
		require.Equal(t, remoteListener, messages[0].Target)
	})

	t.Run("payload_round_trip", func(t *testing.T) {
		transport := dispatcher.NewService()
		relayer, err := application.NewCrossChainRelayer(
			transport, newFakeClock(genesis), destinationChainId, remoteOwner, remoteListener,
		)
		require.NoError(t, err)

		auction := completedAuction(t, "0.1", "0.2")
		_, err = relayer.OnDrawFinalized(ctx, auction)
		require.NoError(t, err)

		messages := transport.Messages()
		require.Len(t, messages, 1)

		owner, listener, buf, err := application.DecodeRelayEnvelope(messages[0].Payload)
		require.NoError(t, err)
		require.Equal(t, remoteOwner, owner)
		require.Equal(t, remoteListener, listener)

		payload, phases, err := application.DecodeListenerPayload(buf)
		require.NoError(t, err)
		require.Equal(t, auction.RandomNumber, payload.RandomNumber)
		require.Equal(t, bob, payload.RewardRecipient)
		require.Len(t, phases, len(auction.Phases))
		for i := range auction.Phases {
			expected, err := auction.Phases.Get(i)
			require.NoError(t, err)
			require.Equal(t, expected.Recipient, phases[i].Recipient)
			require.True(t, expected.RewardPortion.Equal(phases[i].RewardPortion))
		}
	})

	t.Run("exactly_once_per_sequence", func(t *testing.T) {
		transport := dispatcher.NewService()
		relayer, err := application.NewCrossChainRelayer(
			transport, newFakeClock(genesis), destinationChainId, remoteOwner, remoteListener,
		)
		require.NoError(t, err)

		auction := completedAuction(t, "0.1", "0.2")
		_, err = relayer.OnDrawFinalized(ctx, auction)
		require.NoError(t, err)

		_, err = relayer.OnDrawFinalized(ctx, auction)
		require.Error(t, err)
		require.ErrorIs(t, err, domain.ErrAlreadyRelayed)
		require.Len(t, transport.Messages(), 1)
	})

	t.Run("distinct_message_ids", func(t *testing.T) {
		transport := dispatcher.NewService()

		first, err := transport.DispatchMessage(ctx, destinationChainId, remoteListener, []byte("payload"))
		require.NoError(t, err)
		second, err := transport.DispatchMessage(ctx, destinationChainId, remoteListener, []byte("payload"))
		require.NoError(t, err)
		require.NotEqual(t, first, second)
	})
}
