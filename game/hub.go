package game

import (
	"context"
	"math/rand"
	"time"

	"astrovet/catalog"
	"astrovet/shared/logger"
)

type waitingClient struct {
	client Client
	name   string
}

// Hub is the single coordinating actor: it owns the matchmaking queue, the
// session registry and the shared tickers, and serializes every state
// mutation behind one goroutine. Handlers and pumps talk to it through
// channels only.
type Hub struct {
	configs RoomConfigs

	registry *Registry
	// roomByClient tracks which session a connection belongs to; a
	// participant is in at most one.
	roomByClient map[string]string
	waiting      []waitingClient

	events      chan clientEvent
	disconnects chan Client
	verdicts    chan verdictEvent

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
	evaluator     Evaluator
	rng           *rand.Rand
}

func NewHub(configs RoomConfigs, idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, evaluator Evaluator, rng *rand.Rand) *Hub {
	return &Hub{
		configs:       configs,
		registry:      NewRegistry(),
		roomByClient:  make(map[string]string),
		events:        make(chan clientEvent, 1024),
		disconnects:   make(chan Client, 64),
		verdicts:      make(chan verdictEvent, 64),
		idGenerator:   idgen,
		tickerCreator: tickerCreator,
		evaluator:     evaluator,
		rng:           rng,
	}
}

// Dispatch hands a decoded client frame to the hub loop.
func (h *Hub) Dispatch(ctx context.Context, from Client, env ClientEnvelope) {
	select {
	case h.events <- clientEvent{from: from, env: env}:
	case <-ctx.Done():
	}
}

// Disconnect reports a dropped connection to the hub loop.
func (h *Hub) Disconnect(c Client) {
	h.disconnects <- c
}

// Run is the hub actor. It signals started once the tickers are wired so
// callers can block until the loop is live.
func (h *Hub) Run(started chan struct{}) {
	ticker := h.tickerCreator.Create(time.Second)
	pingTicker := h.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			h.handleTick(now)
		case <-pingTicker:
			h.pingAll()
		case ev := <-h.events:
			h.handleEvent(ev)
		case v := <-h.verdicts:
			h.handleVerdict(v)
		case c := <-h.disconnects:
			h.handleDisconnect(c)
		}
	}
}

func (h *Hub) handleEvent(ev clientEvent) {
	switch ev.env.Type {
	case TypeFindGame:
		h.handleFindGame(ev.from, ev.env.Name)

	case TypeChatMessage:
		room, ok := h.registry.Lookup(ev.env.RoomID)
		if !ok {
			return
		}
		room.handleChat(ev.from, ev.env.Text, time.Now())

	case TypeSubmitDiagnosis:
		room, ok := h.registry.Lookup(ev.env.RoomID)
		if !ok {
			return
		}
		room.handleSubmission(ev.from, ev.env.Text)

	default:
		logger.Debugf("[Hub] Ignoring unknown message type %q", ev.env.Type)
	}
}

// handleFindGame pairs the requester with the oldest waiting participant, or
// queues it when nobody is waiting. Always succeeds.
func (h *Hub) handleFindGame(c Client, name string) {
	if roomID, ok := h.roomByClient[c.Key()]; ok {
		// Already seated; a participant is in at most one session.
		logger.Debugf("[Hub] Ignoring findGame from %s, already in room %s", name, roomID)
		return
	}

	if h.isWaiting(c) {
		// Repeat request from a queued connection: just re-acknowledge.
		h.send(c, MakeWaiting())
		return
	}

	if len(h.waiting) == 0 {
		h.waiting = append(h.waiting, waitingClient{client: c, name: name})
		h.send(c, MakeWaiting())
		logger.Infof("[Hub] %s is waiting for an opponent (queue size %d)", name, len(h.waiting))
		return
	}

	opponent := h.waiting[0]
	h.waiting = h.waiting[1:]

	roomID := h.idGenerator.Generate()

	// Unbiased coin flip for the role split.
	requesterRole := RoleSpace
	if h.rng.Intn(2) == 1 {
		requesterRole = RoleVet
	}

	requesterSeat := seat{client: c, name: name, role: requesterRole}
	opponentSeat := seat{client: opponent.client, name: opponent.name, role: requesterRole.Other()}

	selector := catalog.NewSelector(rand.New(rand.NewSource(h.rng.Int63())))
	room := NewRoom(roomID, requesterSeat, opponentSeat, h.configs, selector, h.evaluator, h.verdicts)

	if err := h.registry.Register(roomID, room); err != nil {
		logger.Criticalf("[Hub] Could not register room %s: %v", roomID, err)
		// Put both back at the head of the queue so neither hangs without
		// an acknowledgement.
		h.waiting = append([]waitingClient{opponent, {client: c, name: name}}, h.waiting...)
		h.send(opponent.client, MakeWaiting())
		h.send(c, MakeWaiting())
		return
	}
	h.roomByClient[c.Key()] = roomID
	h.roomByClient[opponent.client.Key()] = roomID

	logger.Infof("[Hub] Matched %s with %s in room %s (%d active rooms)", name, opponent.name, roomID, h.registry.Len())
	room.start()
}

func (h *Hub) isWaiting(c Client) bool {
	for _, w := range h.waiting {
		if w.client.Key() == c.Key() {
			return true
		}
	}
	return false
}

func (h *Hub) handleVerdict(v verdictEvent) {
	room, ok := h.registry.Lookup(v.roomID)
	if !ok {
		// Session ended while the oracle was thinking.
		return
	}
	if room.handleVerdict(v.answer, v.correct, time.Now()) {
		h.removeRoom(room)
	}
}

func (h *Hub) handleTick(now time.Time) {
	var done []*Room
	h.registry.Each(func(r *Room) {
		if r.Tick(now) {
			done = append(done, r)
		}
	})
	for _, r := range done {
		h.removeRoom(r)
	}
}

func (h *Hub) handleDisconnect(c Client) {
	for i, w := range h.waiting {
		if w.client.Key() == c.Key() {
			h.waiting = append(h.waiting[:i], h.waiting[i+1:]...)
			c.CancelAndRelease()
			logger.Infof("[Hub] Removed %s from the waiting queue", w.name)
			return
		}
	}

	roomID, ok := h.roomByClient[c.Key()]
	if !ok {
		c.CancelAndRelease()
		return
	}

	room, ok := h.registry.Lookup(roomID)
	if !ok {
		delete(h.roomByClient, c.Key())
		c.CancelAndRelease()
		return
	}

	logger.Infof("[Room %s] Participant disconnected, tearing the session down", roomID)
	room.notifyPeerGone(c)
	h.removeRoom(room)
}

// removeRoom drops a session from the registry and releases both pumps.
// After this, any event still referencing the room id is silently ignored.
func (h *Hub) removeRoom(room *Room) {
	h.registry.Remove(room.id)
	for _, s := range room.seats {
		delete(h.roomByClient, s.client.Key())
	}
	room.release()
}

func (h *Hub) pingAll() {
	for _, w := range h.waiting {
		w.client.Ping()
	}
	h.registry.Each(func(r *Room) {
		r.pingClients()
	})
}

func (h *Hub) send(c Client, data []byte) {
	if data == nil {
		return
	}
	if err := c.Send(data); err != nil {
		logger.Warningf("[Hub] Dropping frame for %s: %v", c.Key(), err)
	}
}
