package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	e := New(TypeCheckInAccepted, at, map[string]any{"account_id": "acc-1"})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, TypeCheckInAccepted, e.Type)
	assert.Equal(t, at, e.OccurredAt)
	assert.Equal(t, "acc-1", e.Data["account_id"])
}

func TestRedisPublisher_Publish(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(DefaultQueue, `.*`).SetVal(1)

	p := NewRedisPublisher(db, "")
	err := p.Publish(ctx, New(TypeBookingPromoted, time.Now(), map[string]any{"session_id": "s-1"}))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush("custom:events", `.*`).SetErr(errors.New("redis down"))

	p := NewRedisPublisher(db, "custom:events")
	err := p.Publish(ctx, New(TypeCheckInAccepted, time.Now(), nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_QueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(DefaultQueue).SetVal(4)

	n, err := NewRedisPublisher(db, "").QueueLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestRedisPublisher_QueueLengthFunc(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLLen(DefaultQueue).SetVal(7)
	mock.ExpectLLen(DefaultQueue).SetErr(errors.New("redis down"))

	read := NewRedisPublisher(db, "").QueueLengthFunc(time.Second)
	assert.Equal(t, 7.0, read())
	assert.Equal(t, -1.0, read())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), New("anything", time.Now(), nil)))
}
