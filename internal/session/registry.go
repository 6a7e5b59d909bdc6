package session

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry is the process-wide mapping from session identifier to Machine.
// It exclusively owns the set of live sessions: machines are created on
// connect and released on disconnect, and no two sessions ever share a window
// or cooldown. Lookup is O(1).
type Registry struct {
	config   MachineConfig
	sessions map[string]*Machine
	log      *zap.Logger
	mu       sync.RWMutex
}

// NewRegistry creates a Registry that builds machines from the given config.
func NewRegistry(config MachineConfig) *Registry {
	log := config.Log
	if log == nil {
		log = zap.NewNop()
	}

	return &Registry{
		config:   config,
		sessions: make(map[string]*Machine),
		log:      log,
	}
}

// Connect creates, registers, and returns a new session with an empty window
// and an unset cooldown.
func (r *Registry) Connect() *Machine {
	id := uuid.NewString()
	machine := NewMachine(id, r.config)

	r.mu.Lock()
	r.sessions[id] = machine
	r.mu.Unlock()

	r.log.Info("client connected", zap.String("session_id", id))
	return machine
}

// Get returns the session with the given id, if it is live.
func (r *Registry) Get(id string) (*Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	machine, ok := r.sessions[id]
	return machine, ok
}

// Disconnect removes the session and releases its owned state. Removing an
// unknown id is a no-op.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		r.log.Info("client disconnected", zap.String("session_id", id))
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
