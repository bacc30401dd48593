package types

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/modern-go/reflect2"
)

var log = logging.Logger("wallet_stream")

var (
	ErrCloseChannel   = fmt.Errorf("recover send once")
	ErrRequestTimeout = errors.New("request timeout")
)

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrRequestTimeout) || strings.Contains(err.Error(), ErrRequestTimeout.Error())
}

// BaseEventStream correlates requests pushed over channels with the responses coming back.
type BaseEventStream struct {
	reqLk     sync.RWMutex
	idRequest map[uuid.UUID]*RequestEvent
	cfg       *RequestConfig
}

func NewBaseEventStream(ctx context.Context, cfg *RequestConfig) *BaseEventStream {
	baseEventStream := &BaseEventStream{
		reqLk:     sync.RWMutex{},
		idRequest: make(map[uuid.UUID]*RequestEvent),
		cfg:       cfg,
	}
	go baseEventStream.cleanRequests(ctx)
	return baseEventStream
}

// SendRequest sends to the first channel and falls back to the others concurrently.
func (e *BaseEventStream) SendRequest(ctx context.Context, channels []*ChannelInfo, method string, payload []byte, result interface{}) error {
	if len(channels) == 0 {
		return fmt.Errorf("send request must have channel")
	}

	processResp := func(resp *ResponseEvent) error {
		if len(resp.Error) > 0 {
			if isTimeoutError(errors.New(resp.Error)) {
				return fmt.Errorf("%w: %s", ErrRequestTimeout, resp.Error)
			}
			return errors.New(resp.Error)
		}

		if !reflect2.IsNil(result) {
			return json.Unmarshal(resp.Payload, result)
		}
		return nil
	}
	firstChannel := channels[0]
	resp, err := e.sendOnce(ctx, firstChannel, method, payload)
	if err == nil {
		return processResp(resp)
	}

	if ctx.Err() != nil || len(channels) == 1 {
		return err
	}

	log.Warnf("the first channel is fail, try to other channel")
	otherChannels := channels[1:]
	respCh := make(chan *ResponseEvent, len(otherChannels))
	errCh := make(chan error, len(otherChannels))
	for _, channel := range otherChannels {
		go func(channel *ChannelInfo) {
			respEvent, err := e.sendOnce(ctx, channel, method, payload)
			if err != nil {
				log.Errorf("send request %s to %s failed %v", method, channel.Source, err)
				errCh <- err
				return
			}
			respCh <- respEvent
		}(channel)
	}

	errs := []string{err.Error()}
	for range otherChannels {
		select {
		case resp := <-respCh:
			return processResp(resp)
		case err := <-errCh:
			errs = append(errs, err.Error())
		case <-ctx.Done():
			return fmt.Errorf("request cancel by context")
		}
	}
	return fmt.Errorf("all request failed: %s", strings.Join(errs, "; "))
}

func (e *BaseEventStream) sendOnce(ctx context.Context, channel *ChannelInfo, method string, payload []byte) (response *ResponseEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrCloseChannel
		}
	}()

	id := uuid.New()
	resultCh := make(chan *ResponseEvent, 1)
	request := &RequestEvent{
		ID:         id,
		Method:     method,
		Payload:    payload,
		CreateTime: time.Now(),
		Result:     resultCh,
	}
	e.reqLk.Lock()
	e.idRequest[id] = request
	e.reqLk.Unlock()
	defer e.forget(id)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("send request cancel by context %w", ctx.Err())
	}
	select {
	case <-channel.done:
		return nil, ErrCloseChannel
	default:
	}

	select {
	// a closed OutBound panics here and is reported as ErrCloseChannel
	case channel.OutBound <- request:
		log.Debugf("send request %s to %s", method, channel.Source)
	case <-channel.done:
		return nil, ErrCloseChannel
	case <-ctx.Done():
		return nil, fmt.Errorf("send request cancel by context %w", ctx.Err())
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cancel by context %w", ctx.Err())
	case <-channel.done:
		return nil, ErrCloseChannel
	case respEvent := <-resultCh:
		return respEvent, nil
	}
}

func (e *BaseEventStream) forget(id uuid.UUID) {
	e.reqLk.Lock()
	delete(e.idRequest, id)
	e.reqLk.Unlock()
}

func (e *BaseEventStream) cleanRequests(ctx context.Context) {
	if e.cfg.RequestTimeout <= 0 || e.cfg.ClearInterval <= 0 {
		return
	}
	tm := time.NewTicker(e.cfg.ClearInterval)
	defer tm.Stop()
	for {
		select {
		case <-tm.C:
			e.reqLk.Lock()
			for id, request := range e.idRequest {
				if time.Since(request.CreateTime) > e.cfg.RequestTimeout {
					delete(e.idRequest, id)
					// the wallet may answer at the same moment, never block here
					select {
					case request.Result <- &ResponseEvent{
						ID:      id,
						Payload: nil,
						Error:   fmt.Sprintf("%s: create time %s method %s", ErrRequestTimeout, request.CreateTime, request.Method),
					}:
					default:
					}
				}
			}
			e.reqLk.Unlock()
		case <-ctx.Done():
			log.Debugf("return clean request")
			return
		}
	}
}

func (e *BaseEventStream) ResponseEvent(ctx context.Context, resp *ResponseEvent) error {
	e.reqLk.Lock()
	event, ok := e.idRequest[resp.ID]
	if ok {
		delete(e.idRequest, resp.ID)
	}
	e.reqLk.Unlock()
	if !ok {
		return fmt.Errorf("request id %s not exit", resp.ID.String())
	}

	select {
	case event.Result <- resp:
	default:
	}
	return nil
}

// PendingCount is the number of requests waiting for a response.
func (e *BaseEventStream) PendingCount() int {
	e.reqLk.RLock()
	defer e.reqLk.RUnlock()
	return len(e.idRequest)
}
