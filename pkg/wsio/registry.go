package wsio

import (
	"sync"

	"github.com/vango-dev/wsio/pkg/protocol"
)

// registry holds both alias tables of one connection.
//
// The local side (incoming direction) maps aliases this side assigned to
// listener names and handlers. The remote side (outgoing direction) maps
// names the peer announced to the peer's aliases. Both start with the control
// event bound to the control alias.
type registry struct {
	mu sync.RWMutex

	next    int
	local   map[protocol.Alias]string
	aliases map[string]protocol.Alias

	handlers       map[string]MessageHandler
	binaryHandlers map[string]BinaryHandler

	remote map[string]protocol.Alias
}

func newRegistry() *registry {
	return &registry{
		next:           1,
		local:          map[protocol.Alias]string{protocol.ControlAlias: protocol.ControlEvent},
		aliases:        map[string]protocol.Alias{protocol.ControlEvent: protocol.ControlAlias},
		handlers:       make(map[string]MessageHandler),
		binaryHandlers: make(map[string]BinaryHandler),
		remote:         map[string]protocol.Alias{protocol.ControlEvent: protocol.ControlAlias},
	}
}

// register binds a handler to name and returns its local alias.
// A name keeps its first alias; registering it again replaces the handler,
// and a name holds at most one handler of either kind.
func (r *registry) register(name string, mh MessageHandler, bh BinaryHandler) (protocol.Alias, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alias, ok := r.aliases[name]
	if !ok {
		if r.next > protocol.MaxAlias {
			return protocol.Alias{}, ErrAliasSpaceExhausted
		}
		var err error
		alias, err = protocol.NewAlias(r.next)
		if err != nil {
			return protocol.Alias{}, err
		}
		r.next++
		r.aliases[name] = alias
		r.local[alias] = name
	}

	delete(r.handlers, name)
	delete(r.binaryHandlers, name)
	if mh != nil {
		r.handlers[name] = mh
	}
	if bh != nil {
		r.binaryHandlers[name] = bh
	}
	return alias, nil
}

// resolveIncoming returns the listener name bound to a local alias.
func (r *registry) resolveIncoming(alias protocol.Alias) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.local[alias]
	return name, ok
}

func (r *registry) localAlias(name string) (protocol.Alias, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alias, ok := r.aliases[name]
	return alias, ok
}

func (r *registry) messageHandler(name string) MessageHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[name]
}

func (r *registry) binaryHandler(name string) BinaryHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.binaryHandlers[name]
}

// learnRemote records the peer's alias for name, overwriting any earlier
// entry. The control binding cannot be changed.
func (r *registry) learnRemote(name string, alias protocol.Alias) bool {
	if name == protocol.ControlEvent {
		return false
	}
	r.mu.Lock()
	r.remote[name] = alias
	r.mu.Unlock()
	return true
}

// resolveOutgoing returns the peer's alias for name, if announced.
func (r *registry) resolveOutgoing(name string) (protocol.Alias, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alias, ok := r.remote[name]
	return alias, ok
}
