package room

import "sync"

// State is the authoritative aggregate for one room: the canvas
// history plus the board and image registries. Every mutation and every
// consistent read goes through Update, so concurrent events for the
// same room can never interleave their read-modify-write of the
// history or registries. Different rooms share nothing and run fully
// in parallel.
type State struct {
	ID string

	mu     sync.Mutex
	canvas *History
	boards *Items
	images *Items
}

func newState(id string, historyDepth int) *State {
	return &State{
		ID:     id,
		canvas: NewHistory(historyDepth),
		boards: NewItems(),
		images: NewItems(),
	}
}

// Update runs fn with exclusive access to the room's mutable state.
// fn must not block on I/O; the lock is for in-memory mutation only.
func (s *State) Update(fn func(canvas *History, boards, images *Items)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.canvas, s.boards, s.images)
}

// Store maps room ids to their live aggregates. Rooms are created
// lazily on first access and dropped when their last member leaves.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]*State
	historyDepth int
}

// NewStore returns an empty room store whose rooms bound their canvas
// history at historyDepth frames.
func NewStore(historyDepth int) *Store {
	return &Store{
		rooms:        make(map[string]*State),
		historyDepth: historyDepth,
	}
}

// GetOrCreate returns the room's aggregate, creating an empty one on
// first access. Two connections racing to create the same room observe
// the same aggregate.
func (st *Store) GetOrCreate(id string) *State {
	st.mu.RLock()
	state, ok := st.rooms[id]
	st.mu.RUnlock()
	if ok {
		return state
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if state, ok := st.rooms[id]; ok {
		return state
	}
	state = newState(id, st.historyDepth)
	st.rooms[id] = state
	return state
}

// Get returns the room's aggregate if it exists.
func (st *Store) Get(id string) (*State, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	state, ok := st.rooms[id]
	return state, ok
}

// Drop removes a room's aggregate. Dropping an unknown room is a
// no-op.
func (st *Store) Drop(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.rooms, id)
}

// Len reports the number of live rooms.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.rooms)
}
