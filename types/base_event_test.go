package types

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockParams struct {
	A string
}

type mockResult struct {
	B string
}

func TestSendRequest(t *testing.T) {
	t.Run("correct", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)
		result := &mockResult{}

		client := setupClient(t, eventSteam, "wallet-a")
		go client.start(ctx)

		err = eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel}, "mock_method", parms, result)
		require.NoError(t, err)
		require.Equal(t, "mock", result.B)
		require.Equal(t, 0, eventSteam.PendingCount())

		err = eventSteam.SendRequest(ctx, nil, "mock_method", parms, result)
		require.EqualError(t, err, "send request must have channel")
	})

	t.Run("unknown response id", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		err := eventSteam.ResponseEvent(ctx, &ResponseEvent{ID: uuid.New()})
		require.Error(t, err)

		// the lock must be released after a miss
		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)
		client := setupClient(t, eventSteam, "wallet-a")
		go client.start(ctx)
		err = eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel}, "mock_method", parms, &mockResult{})
		require.NoError(t, err)
	})

	t.Run("send multiple", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)

		var channels []*ChannelInfo
		for i := 0; i < 10; i++ {
			client := setupClient(t, eventSteam, fmt.Sprintf("wallet-%d", i))
			go client.start(ctx)
			channels = append(channels, client.channel)
		}
		for i := 0; i < 10; i++ {
			result := &mockResult{}
			require.NoError(t, eventSteam.SendRequest(ctx, channels, "mock_method", parms, result))
			require.Equal(t, "mock", result.B)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)
		client := setupClient(t, eventSteam, "wallet-a")
		go client.start(ctx)

		var result *mockResult
		require.NoError(t, eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel}, "mock_method", parms, result))
	})

	t.Run("wallet error", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)
		client := setupClient(t, eventSteam, "wallet-a")
		client.respondErr = "user rejected"
		go client.start(ctx)

		err = eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel}, "mock_method", parms, &mockResult{})
		require.EqualError(t, err, "user rejected")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)

		var channels []*ChannelInfo
		for i := 0; i < 3; i++ {
			client := setupClient(t, eventSteam, fmt.Sprintf("wallet-%d", i))
			go client.start(ctx)
			channels = append(channels, client.channel)
		}
		sendCtx, sendCancel := context.WithCancel(context.Background())
		sendCancel()
		err = eventSteam.SendRequest(sendCtx, channels, "mock_method", parms, &mockResult{})
		require.EqualError(t, err, "send request cancel by context context canceled")
	})

	t.Run("first closed and retry others", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)
		result := &mockResult{}

		client := setupClient(t, eventSteam, "wallet-a")
		go client.start(ctx)
		client2 := setupClient(t, eventSteam, "wallet-b")
		go client2.start(ctx)

		client.close()
		err = eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel, client2.channel}, "mock_method", parms, result)
		require.NoError(t, err)
		require.Equal(t, "mock", result.B)
	})

	t.Run("clear timeout request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, &RequestConfig{
			RequestQueueSize: 30,
			RequestTimeout:   time.Millisecond * 50,
			ClearInterval:    time.Millisecond * 20,
		})
		var requests []*RequestEvent
		eventSteam.reqLk.Lock()
		for i := 0; i < 10; i++ {
			req := &RequestEvent{
				CreateTime: time.Now(),
				Result:     make(chan *ResponseEvent, 1),
			}
			eventSteam.idRequest[uuid.New()] = req
			requests = append(requests, req)
		}
		eventSteam.reqLk.Unlock()

		require.Eventually(t, func() bool {
			return eventSteam.PendingCount() == 0
		}, time.Second*5, time.Millisecond*20)
		for _, req := range requests {
			require.Len(t, req.Result, 1)
			result := <-req.Result
			require.Contains(t, result.Error, ErrRequestTimeout.Error())
		}
	})

	t.Run("sweeper disabled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, &RequestConfig{RequestQueueSize: 30})
		eventSteam.reqLk.Lock()
		eventSteam.idRequest[uuid.New()] = &RequestEvent{
			CreateTime: time.Now().Add(-time.Hour),
			Result:     make(chan *ResponseEvent, 1),
		}
		eventSteam.reqLk.Unlock()

		time.Sleep(time.Millisecond * 100)
		require.Equal(t, 1, eventSteam.PendingCount())
	})

	t.Run("all request failed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		eventSteam := NewBaseEventStream(ctx, DefaultConfig())

		parms, err := json.Marshal(mockParams{A: "mock arg"})
		require.NoError(t, err)

		client := setupClient(t, eventSteam, "wallet-a")
		go client.start(ctx)
		client2 := setupClient(t, eventSteam, "wallet-b")
		go client2.start(ctx)

		client.close()
		client2.close()
		err = eventSteam.SendRequest(ctx, []*ChannelInfo{client.channel, client2.channel}, "mock_method", parms, &mockResult{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "all request failed:")
	})
}

func TestIsTimeoutError(t *testing.T) {
	err := fmt.Errorf("%w %s method %s", ErrRequestTimeout, time.Now(), "MOCK")
	require.True(t, isTimeoutError(err))
	require.True(t, isTimeoutError(fmt.Errorf("remote: %s", ErrRequestTimeout.Error())))
	require.False(t, isTimeoutError(fmt.Errorf("user rejected")))
	require.False(t, isTimeoutError(nil))
}

type mockClient struct {
	t          *testing.T
	event      *BaseEventStream
	requestCh  chan *RequestEvent
	channel    *ChannelInfo
	respondErr string

	closeCh   chan struct{}
	waitClose chan struct{}

	cancel context.CancelFunc
}

func setupClient(t *testing.T, event *BaseEventStream, source string) *mockClient {
	requestCh := make(chan *RequestEvent)
	ctx, cancel := context.WithCancel(context.Background())

	return &mockClient{
		t:         t,
		requestCh: requestCh,
		event:     event,
		channel:   NewChannelInfo(ctx, source, requestCh),
		closeCh:   make(chan struct{}),
		waitClose: make(chan struct{}),
		cancel:    cancel,
	}
}

func (m *mockClient) close() {
	m.cancel()
	m.closeCh <- struct{}{}
	<-m.waitClose
}

func (m *mockClient) start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.closeCh:
			m.waitClose <- struct{}{}
			return
		case req := <-m.requestCh:
			var params mockParams
			if err := json.Unmarshal(req.Payload, &params); err != nil || params.A != "mock arg" {
				m.t.Errorf("unexpected params %s", req.Payload)
			}
			resp := &ResponseEvent{ID: req.ID, Error: m.respondErr}
			if m.respondErr == "" {
				data, _ := json.Marshal(mockResult{B: "mock"})
				resp.Payload = data
			}
			if err := m.event.ResponseEvent(ctx, resp); err != nil {
				m.t.Errorf("response event: %v", err)
			}
		}
	}
}
