package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry, and a deferred command queue. Structural changes made by a system
// are queued and applied by FlushCommands once that system returns, so later
// systems in the same tick observe a consistent state.
type World struct {
	pool     *EntityPool
	registry *Registry
	commands []func()
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
		commands: make([]func(), 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// DestroyEntity clears every component of id and frees its slot immediately.
// Systems should go through Defer instead.
func (w *World) DestroyEntity(id EntityID) {
	if !w.pool.Alive(id) {
		return
	}
	w.registry.RemoveAll(id)
	w.pool.Destroy(id)
}

// Defer queues a structural change to run at the next FlushCommands.
func (w *World) Defer(cmd func()) {
	w.commands = append(w.commands, cmd)
}

// Pending returns the number of queued commands.
func (w *World) Pending() int { return len(w.commands) }

// FlushCommands applies queued commands in order. Commands queued while
// flushing run in the same flush.
func (w *World) FlushCommands() {
	for i := 0; i < len(w.commands); i++ {
		w.commands[i]()
	}
	clear(w.commands)
	w.commands = w.commands[:0]
}
