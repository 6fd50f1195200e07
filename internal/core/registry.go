package core

import (
	"hash/fnv"
	"sync"
)

const registryShards = 32

// room groups the connections attached to one stream.
type room struct {
	viewers      map[string]*Client
	broadcasters map[string]*Client
}

func (r *room) empty() bool {
	return len(r.viewers) == 0 && len(r.broadcasters) == 0
}

func (r *room) has(connID string) bool {
	_, v := r.viewers[connID]
	_, b := r.broadcasters[connID]
	return v || b
}

type roomShard struct {
	mu    sync.Mutex
	rooms map[string]*room
}

type connShard struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{} // connID -> stream ids
}

// Registry maps stream ids to the connections watching them. It is safe for
// concurrent use; operations on one stream are atomic, different streams
// hash to independent shards.
//
// Lock order is always room shard, then connection shard.
type Registry struct {
	rooms [registryShards]roomShard
	conns [registryShards]connShard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.rooms {
		r.rooms[i].rooms = make(map[string]*room)
		r.conns[i].rooms = make(map[string]map[string]struct{})
	}
	return r
}

func shardOf(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % registryShards)
}

func (r *Registry) roomShard(streamID string) *roomShard {
	return &r.rooms[shardOf(streamID)]
}

func (r *Registry) connShard(connID string) *connShard {
	return &r.conns[shardOf(connID)]
}

// Join adds c to the stream's viewers and returns the resulting count.
// Joining twice is a no-op reported with added=false.
func (r *Registry) Join(streamID string, c *Client) (count int, added bool, err error) {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm != nil {
		if _, ok := rm.viewers[c.ID]; ok {
			return len(rm.viewers), false, nil
		}
	}

	cs := r.connShard(c.ID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if c.closed {
		return r.countLocked(rm), false, ErrClientClosed
	}

	if rm == nil {
		rm = &room{viewers: make(map[string]*Client), broadcasters: make(map[string]*Client)}
		rs.rooms[streamID] = rm
	}
	rm.viewers[c.ID] = c
	indexAdd(cs, c.ID, streamID)

	return len(rm.viewers), true, nil
}

// Leave removes the connection from the stream's viewers. Rooms left with no
// connections are evicted.
func (r *Registry) Leave(streamID, connID string) (count int, removed bool) {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm == nil {
		return 0, false
	}
	if _, ok := rm.viewers[connID]; !ok {
		return len(rm.viewers), false
	}
	delete(rm.viewers, connID)

	if !rm.has(connID) {
		cs := r.connShard(connID)
		cs.mu.Lock()
		indexRemove(cs, connID, streamID)
		cs.mu.Unlock()
	}
	if rm.empty() {
		delete(rs.rooms, streamID)
	}
	return len(rm.viewers), true
}

// CountOf returns the stream's current viewer count, 0 for unknown streams.
func (r *Registry) CountOf(streamID string) int {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return r.countLocked(rs.rooms[streamID])
}

func (r *Registry) countLocked(rm *room) int {
	if rm == nil {
		return 0
	}
	return len(rm.viewers)
}

// RoomsOf lists every stream the connection is attached to, as viewer or broadcaster.
func (r *Registry) RoomsOf(connID string) []string {
	cs := r.connShard(connID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return indexList(cs, connID)
}

// Close marks c as gone and returns the streams it must be removed from.
// After Close, Join and MarkBroadcaster refuse the client.
func (r *Registry) Close(c *Client) []string {
	cs := r.connShard(c.ID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c.closed = true
	return indexList(cs, c.ID)
}

// Members returns the connections that should receive room broadcasts:
// viewers and broadcasters, each once.
func (r *Registry) Members(streamID string) []*Client {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm == nil {
		return nil
	}
	out := make([]*Client, 0, len(rm.viewers)+len(rm.broadcasters))
	for _, c := range rm.viewers {
		out = append(out, c)
	}
	for id, c := range rm.broadcasters {
		if _, dup := rm.viewers[id]; !dup {
			out = append(out, c)
		}
	}
	return out
}

// MarkBroadcaster adds c to the stream's broadcaster sub-room.
func (r *Registry) MarkBroadcaster(streamID string, c *Client) error {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	cs := r.connShard(c.ID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}

	rm := rs.rooms[streamID]
	if rm == nil {
		rm = &room{viewers: make(map[string]*Client), broadcasters: make(map[string]*Client)}
		rs.rooms[streamID] = rm
	}
	rm.broadcasters[c.ID] = c
	indexAdd(cs, c.ID, streamID)
	return nil
}

// RemoveBroadcaster drops the connection from the broadcaster sub-room.
func (r *Registry) RemoveBroadcaster(streamID, connID string) bool {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm == nil {
		return false
	}
	if _, ok := rm.broadcasters[connID]; !ok {
		return false
	}
	delete(rm.broadcasters, connID)

	if !rm.has(connID) {
		cs := r.connShard(connID)
		cs.mu.Lock()
		indexRemove(cs, connID, streamID)
		cs.mu.Unlock()
	}
	if rm.empty() {
		delete(rs.rooms, streamID)
	}
	return true
}

// Broadcasters returns the stream's broadcaster connections.
func (r *Registry) Broadcasters(streamID string) []*Client {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm == nil {
		return nil
	}
	out := make([]*Client, 0, len(rm.broadcasters))
	for _, c := range rm.broadcasters {
		out = append(out, c)
	}
	return out
}

// Evict drops the whole room and returns the connections that were in it.
func (r *Registry) Evict(streamID string) []*Client {
	rs := r.roomShard(streamID)
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rm := rs.rooms[streamID]
	if rm == nil {
		return nil
	}
	delete(rs.rooms, streamID)

	seen := make(map[string]*Client, len(rm.viewers)+len(rm.broadcasters))
	for id, c := range rm.viewers {
		seen[id] = c
	}
	for id, c := range rm.broadcasters {
		seen[id] = c
	}
	out := make([]*Client, 0, len(seen))
	for id, c := range seen {
		cs := r.connShard(id)
		cs.mu.Lock()
		indexRemove(cs, id, streamID)
		cs.mu.Unlock()
		out = append(out, c)
	}
	return out
}

// Len returns the number of rooms held in memory.
func (r *Registry) Len() int {
	n := 0
	for i := range r.rooms {
		rs := &r.rooms[i]
		rs.mu.Lock()
		n += len(rs.rooms)
		rs.mu.Unlock()
	}
	return n
}

func indexAdd(cs *connShard, connID, streamID string) {
	set := cs.rooms[connID]
	if set == nil {
		set = make(map[string]struct{})
		cs.rooms[connID] = set
	}
	set[streamID] = struct{}{}
}

func indexRemove(cs *connShard, connID, streamID string) {
	set := cs.rooms[connID]
	if set == nil {
		return
	}
	delete(set, streamID)
	if len(set) == 0 {
		delete(cs.rooms, connID)
	}
}

func indexList(cs *connShard, connID string) []string {
	set := cs.rooms[connID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
