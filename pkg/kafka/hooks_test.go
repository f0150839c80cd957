package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceHookStoresTraceID(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: TraceHeader, Value: []byte("scan-1")}}}

	ctx, _, data, err := TraceHook{}.BeforeHandle(context.Background(), "reports", km, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "scan-1", TraceIDFrom(ctx))
	assert.Equal(t, []byte("x"), data)
	assert.Equal(t, "", TraceIDFrom(context.Background()))
}

func TestHookChainOrderAndPanics(t *testing.T) {
	var order []string
	var errs int

	rec := func(name string) ConsumerHook {
		return hookFuncs{
			before: func(ctx context.Context, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before-"+name)
				return ctx, km, append(data, name...), nil
			},
			after: func() { order = append(order, "after-"+name) },
			onErr: func() { errs++ },
		}
	}
	chain := NewHookChain(rec("a"), nil, rec("b"))

	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(data))
	chain.AfterHandle(ctx, "t", km, data, nil)
	assert.Equal(t, []string{"before-a", "before-b", "after-b", "after-a"}, order)

	panicky := hookFuncs{before: func(context.Context, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
		panic("boom")
	}}
	_, _, _, err = NewHookChain(rec("c"), panicky).BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, 1, errs)
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

type hookFuncs struct {
	before func(context.Context, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	after  func()
	onErr  func()
}

func (h hookFuncs) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.before == nil {
		return ctx, km, data, nil
	}
	return h.before(ctx, km, data)
}

func (h hookFuncs) AfterHandle(context.Context, string, kafka.Message, []byte, error) {
	if h.after != nil {
		h.after()
	}
}

func (h hookFuncs) OnError(context.Context, string, kafka.Message, []byte, error) {
	if h.onErr != nil {
		h.onErr()
	}
}
