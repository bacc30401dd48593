package types

import (
	"time"
)

type RequestConfig struct {
	RequestQueueSize int
	// RequestTimeout of zero disables the sweeper.
	RequestTimeout time.Duration
	ClearInterval  time.Duration
}

func DefaultConfig() *RequestConfig {
	return &RequestConfig{
		RequestQueueSize: 30,
		RequestTimeout:   time.Minute * 5,
		ClearInterval:    time.Minute * 5,
	}
}
