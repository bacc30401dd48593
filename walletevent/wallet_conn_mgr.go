package walletevent

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"

	"github.com/ipfs-force-community/wallet-adapter/types"
)

type walletChannelInfo struct {
	*types.ChannelInfo
	name         string
	announcement *types.WalletAnnouncement

	listenerLk   deadlock.Mutex
	nextListener uint64
	listeners    map[uint64]func(*types.ChangeEvent)
}

func newWalletChannelInfo(channel *types.ChannelInfo, ann *types.WalletAnnouncement) *walletChannelInfo {
	return &walletChannelInfo{
		ChannelInfo:  channel,
		name:         ann.Name,
		announcement: ann,
		listeners:    make(map[uint64]func(*types.ChangeEvent)),
	}
}

func (w *walletChannelInfo) addListener(fn func(*types.ChangeEvent)) func() {
	w.listenerLk.Lock()
	id := w.nextListener
	w.nextListener++
	w.listeners[id] = fn
	w.listenerLk.Unlock()

	return func() {
		w.listenerLk.Lock()
		delete(w.listeners, id)
		w.listenerLk.Unlock()
	}
}

func (w *walletChannelInfo) notify(change *types.ChangeEvent) int {
	w.listenerLk.Lock()
	fns := make([]func(*types.ChangeEvent), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.listenerLk.Unlock()

	for _, fn := range fns {
		fn(change)
	}
	return len(fns)
}

// walletConnMgr tracks remote wallet channels. A wallet may hold several channels; the most
// recently announced one is current and backs the registered provider.
type walletConnMgr struct {
	infoLk    deadlock.Mutex
	conns     map[types.WalletKey][]*walletChannelInfo
	byChannel map[uuid.UUID]*walletChannelInfo
}

func newWalletConnMgr() *walletConnMgr {
	return &walletConnMgr{
		conns:     make(map[types.WalletKey][]*walletChannelInfo),
		byChannel: make(map[uuid.UUID]*walletChannelInfo),
	}
}

func (w *walletConnMgr) addNewConn(channel *walletChannelInfo) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	key := types.KeyOf(channel.name)
	w.conns[key] = append(w.conns[key], channel)
	w.byChannel[channel.ChannelID] = channel
	log.Infow("add wallet connection", "channel", channel.ChannelID.String(),
		"walletName", channel.name,
		"source", channel.Source,
		"connections", len(w.conns[key]),
	)
}

func (w *walletConnMgr) getConn(channelID uuid.UUID) (*walletChannelInfo, error) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	if conn, ok := w.byChannel[channelID]; ok {
		return conn, nil
	}
	return nil, fmt.Errorf("no connect found for channelID %s", channelID)
}

// removeConn drops a channel. When it was the current one, the next newest channel of the same
// wallet is returned as promoted, or nil when none is left.
func (w *walletConnMgr) removeConn(channel *walletChannelInfo) (wasCurrent bool, promoted *walletChannelInfo) {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	delete(w.byChannel, channel.ChannelID)
	key := types.KeyOf(channel.name)
	list := w.conns[key]
	for i, conn := range list {
		if conn.ChannelID != channel.ChannelID {
			continue
		}
		wasCurrent = i == len(list)-1
		list = append(list[:i], list[i+1:]...)
		break
	}
	if len(list) == 0 {
		delete(w.conns, key)
	} else {
		w.conns[key] = list
		if wasCurrent {
			promoted = list[len(list)-1]
		}
	}

	log.Infof("wallet %v remove connection %s", channel.name, channel.ChannelID)
	return wasCurrent, promoted
}

func (w *walletConnMgr) currentChannels() []*walletChannelInfo {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	out := make([]*walletChannelInfo, 0, len(w.conns))
	for _, list := range w.conns {
		out = append(out, list[len(list)-1])
	}
	return out
}

func (w *walletConnMgr) listConnections() []*types.WalletConnection {
	w.infoLk.Lock()
	defer w.infoLk.Unlock()

	out := make([]*types.WalletConnection, 0, len(w.byChannel))
	for _, conn := range w.byChannel {
		out = append(out, &types.WalletConnection{
			Name:         conn.name,
			ChannelID:    conn.ChannelID,
			Source:       conn.Source,
			RequestCount: len(conn.OutBound),
			CreateTime:   conn.CreateTime,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreateTime.Before(out[j].CreateTime)
	})
	return out
}
