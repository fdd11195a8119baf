package game

// Registry maps active room ids to sessions. It is only ever touched from
// the hub loop, so it carries no lock. Lifetime is the process; nothing is
// persisted.
type Registry struct {
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Register fails with ErrDuplicateRoom if the id is already taken. With
// uuid-backed id generation this never happens; the caller logs and bails if
// it somehow does.
func (reg *Registry) Register(id string, room *Room) error {
	if _, exists := reg.rooms[id]; exists {
		return ErrDuplicateRoom
	}
	reg.rooms[id] = room
	return nil
}

func (reg *Registry) Lookup(id string) (*Room, bool) {
	room, ok := reg.rooms[id]
	return room, ok
}

func (reg *Registry) Remove(id string) {
	delete(reg.rooms, id)
}

func (reg *Registry) Len() int {
	return len(reg.rooms)
}

func (reg *Registry) Each(fn func(*Room)) {
	for _, room := range reg.rooms {
		fn(room)
	}
}
