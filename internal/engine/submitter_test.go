package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/types"
)

func TestSubmitterValidation(t *testing.T) {
	s := NewSubmitter(new(mockBroker), NewRegistry(), nil, 1)

	_, err := s.Submit(context.Background(), EntryRequest{Direction: types.DirectionCall, Stake: 1})
	assert.ErrorContains(t, err, "asset")

	_, err = s.Submit(context.Background(), EntryRequest{Asset: "EURUSD-OTC", Direction: "sideways", Stake: 1})
	assert.ErrorContains(t, err, "direction")

	_, err = s.Submit(context.Background(), EntryRequest{Asset: "EURUSD-OTC", Direction: types.DirectionPut})
	assert.ErrorContains(t, err, "stake")
}

func TestSubmitterAcceptedFirstTry(t *testing.T) {
	client := new(mockBroker)
	registry := NewRegistry()
	sink := &captureSink{}
	s := NewSubmitter(client, registry, sink, 1)

	woken := 0
	s.OnRegistered(func() { woken++ })

	client.On("PlaceOption", mock.Anything, broker.PlaceRequest{
		Asset: "EURUSD-OTC", Direction: types.DirectionCall, Stake: 1, Duration: 1,
	}).Return(broker.PlaceResult{Accepted: true, RawRef: 12345}, nil).Once()

	order, err := s.Submit(context.Background(), EntryRequest{
		Asset:     "EURUSD-OTC",
		Direction: types.DirectionCall,
		Stake:     1,
		Payout:    0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "EURUSD-OTC-12345", order.TradeID)
	assert.Equal(t, "12345", order.BrokerRef)
	assert.Equal(t, order.OpenedAt.Add(time.Minute), order.ExpiresAt)
	assert.Equal(t, 1, registry.Len())
	assert.Len(t, sink.opens, 1)
	assert.Equal(t, 1, woken)
	client.AssertExpectations(t)
}

func TestSubmitterRetriesThenSucceeds(t *testing.T) {
	client := new(mockBroker)
	s := NewSubmitter(client, NewRegistry(), nil, 1)
	s.retryDelay = time.Millisecond

	client.On("PlaceOption", mock.Anything, mock.Anything).
		Return(broker.PlaceResult{}, fmt.Errorf("socket reset")).Twice()
	client.On("PlaceOption", mock.Anything, mock.Anything).
		Return(broker.PlaceResult{Accepted: true, RawRef: "77"}, nil).Once()

	order, err := s.Submit(context.Background(), EntryRequest{
		Asset: "EURUSD-OTC", Direction: types.DirectionPut, Stake: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "EURUSD-OTC-77", order.TradeID)
	client.AssertExpectations(t)
}

func TestSubmitterGivesUpAfterThreeAttempts(t *testing.T) {
	client := new(mockBroker)
	s := NewSubmitter(client, NewRegistry(), nil, 1)
	s.retryDelay = time.Millisecond

	client.On("PlaceOption", mock.Anything, mock.Anything).
		Return(broker.PlaceResult{}, nil).Times(3)

	_, err := s.Submit(context.Background(), EntryRequest{
		Asset: "EURUSD-OTC", Direction: types.DirectionCall, Stake: 1,
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "3 attempts")
	client.AssertExpectations(t)
}

func TestSubmitterContextCancelStopsRetries(t *testing.T) {
	client := new(mockBroker)
	s := NewSubmitter(client, NewRegistry(), nil, 1)
	s.retryDelay = time.Hour

	client.On("PlaceOption", mock.Anything, mock.Anything).
		Return(broker.PlaceResult{}, fmt.Errorf("down")).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Submit(ctx, EntryRequest{Asset: "EURUSD-OTC", Direction: types.DirectionCall, Stake: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitterListWrappedRef(t *testing.T) {
	client := new(mockBroker)
	s := NewSubmitter(client, NewRegistry(), nil, 1)

	client.On("PlaceOption", mock.Anything, mock.Anything).
		Return(broker.PlaceResult{Accepted: true, RawRef: []any{float64(4242)}}, nil).Once()

	order, err := s.Submit(context.Background(), EntryRequest{
		Asset: "EURUSD-OTC", Direction: types.DirectionCall, Stake: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "EURUSD-OTC-4242", order.TradeID)
	assert.Equal(t, "4242", order.BrokerRef)
}
