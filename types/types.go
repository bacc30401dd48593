package types

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequestEvent is pushed to a remote wallet. Result is local to the sender and never transported.
type RequestEvent struct {
	ID         uuid.UUID
	Method     string
	Payload    []byte
	CreateTime time.Time           `json:"-"`
	Result     chan *ResponseEvent `json:"-"`
}

type ResponseEvent struct {
	ID      uuid.UUID
	Payload []byte
	Error   string
}

// InitConnect is the first request a remote wallet receives on a new channel; it needs no response.
type InitConnect struct {
	ChannelID uuid.UUID
	AppReady  bool
}

type ChannelInfo struct {
	ChannelID  uuid.UUID
	Source     string
	OutBound   chan *RequestEvent
	CreateTime time.Time

	done <-chan struct{}
}

// NewChannelInfo binds an outbound queue to the lifetime of ctx.
func NewChannelInfo(ctx context.Context, source string, sendEvents chan *RequestEvent) *ChannelInfo {
	return &ChannelInfo{
		ChannelID:  uuid.New(),
		Source:     source,
		OutBound:   sendEvents,
		CreateTime: time.Now(),
		done:       ctx.Done(),
	}
}
