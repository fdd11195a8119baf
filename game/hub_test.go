package game

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrovet/catalog"
)

func newTestHub(seed int64) (*Hub, *MockUniqueIdGenerator) {
	idgen := &MockUniqueIdGenerator{}
	tickers := &MockPeriodicTickerChannelCreator{}
	h := NewHub(defaultConfigs(), idgen, tickers, nil, rand.New(rand.NewSource(seed)))
	return h, idgen
}

func pairUp(t *testing.T, h *Hub, idgen *MockUniqueIdGenerator, roomID string) (*recorderClient, *recorderClient) {
	t.Helper()
	idgen.On("Generate").Return(roomID).Once()

	a := newRecorderClient("conn-" + roomID + "-a")
	b := newRecorderClient("conn-" + roomID + "-b")
	h.handleFindGame(a, "ana")
	h.handleFindGame(b, "ben")

	require.Len(t, a.eventsOfType(t, "gameStart"), 1)
	require.Len(t, b.eventsOfType(t, "gameStart"), 1)
	return a, b
}

func TestHub_FirstParticipantWaits(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(1)
	a := newRecorderClient("conn-a")

	h.handleFindGame(a, "ana")

	assert.Equal(t, "waiting", a.lastEvent(t)["type"])
	assert.Len(t, h.waiting, 1)
	assert.Equal(t, 0, h.registry.Len())

	// A repeat request from the same connection must not pair it with
	// itself.
	h.handleFindGame(a, "ana")
	assert.Len(t, h.waiting, 1)
	assert.Equal(t, "waiting", a.lastEvent(t)["type"])
}

func TestHub_PairsOldestWaitingFirst(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	idgen.On("Generate").Return("room-1").Once()
	idgen.On("Generate").Return("room-2").Once()

	a := newRecorderClient("conn-a")
	b := newRecorderClient("conn-b")
	c := newRecorderClient("conn-c")
	d := newRecorderClient("conn-d")

	h.handleFindGame(a, "ana")
	h.handleFindGame(b, "ben")

	// ana was queued first, so ben's request pairs with her.
	aStart := a.eventsOfType(t, "gameStart")
	bStart := b.eventsOfType(t, "gameStart")
	require.Len(t, aStart, 1)
	require.Len(t, bStart, 1)
	assert.Equal(t, "room-1", aStart[0]["roomId"])
	assert.Equal(t, "room-1", bStart[0]["roomId"])
	assert.Equal(t, "ben", aStart[0]["opponentName"])
	assert.Equal(t, "ana", bStart[0]["opponentName"])

	// The two roles are complementary, whichever way the coin fell.
	roles := map[any]bool{aStart[0]["role"]: true, bStart[0]["role"]: true}
	assert.True(t, roles["space"])
	assert.True(t, roles["vet"])

	// Next pair goes to a fresh room.
	h.handleFindGame(c, "cleo")
	assert.Equal(t, "waiting", c.lastEvent(t)["type"])
	h.handleFindGame(d, "dan")

	cStart := c.eventsOfType(t, "gameStart")
	require.Len(t, cStart, 1)
	assert.Equal(t, "room-2", cStart[0]["roomId"])
	assert.Equal(t, 2, h.registry.Len())

	idgen.AssertExpectations(t)
}

func TestHub_RoundOneUsesOpeningScenario(t *testing.T) {
	t.Parallel()

	// Every new session opens on scenario 0 regardless of seeding.
	for seed := int64(0); seed < 4; seed++ {
		h, idgen := newTestHub(seed)
		a, b := pairUp(t, h, idgen, "room-1")

		opening := catalog.At(0)
		for _, c := range []*recorderClient{a, b} {
			start := c.eventsOfType(t, "gameStart")[0]
			state := start["publicState"].(map[string]any)
			assert.Equal(t, opening.Animal, state["animal"])

			if start["role"] == "space" {
				assert.Equal(t, opening.SpaceClue, state["clue"])
			} else {
				assert.Equal(t, opening.VetClue, state["clue"])
			}
		}
	}
}

func TestHub_TickDrivesRoomTimers(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")

	h.handleTick(time.Now())

	for _, c := range []*recorderClient{a, b} {
		updates := c.eventsOfType(t, "timerUpdate")
		require.Len(t, updates, 1)
		assert.EqualValues(t, 59, updates[0]["secondsRemaining"])
	}
}

func TestHub_UnknownRoomEventsAreDropped(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, _ := pairUp(t, h, idgen, "room-1")
	a.reset()

	h.handleEvent(clientEvent{from: a, env: ClientEnvelope{Type: TypeChatMessage, RoomID: "no-such-room", Text: "hello"}})
	h.handleEvent(clientEvent{from: a, env: ClientEnvelope{Type: TypeSubmitDiagnosis, RoomID: "no-such-room", Text: "hypoxia"}})
	h.handleEvent(clientEvent{from: a, env: ClientEnvelope{Type: "bogusType"}})

	assert.Empty(t, a.events(t))
}

func TestHub_FindGameWhileSeatedIsIgnored(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")
	a.reset()

	// A seated participant cannot queue for a second session.
	h.handleFindGame(a, "ana")

	assert.Empty(t, h.waiting)
	assert.Equal(t, 1, h.registry.Len())
	assert.Empty(t, a.events(t))

	// Nobody is waiting, so the next request queues instead of pairing
	// against the seated one.
	c := newRecorderClient("conn-c")
	h.handleFindGame(c, "cleo")
	assert.Equal(t, "waiting", c.lastEvent(t)["type"])
	assert.Equal(t, 1, h.registry.Len())

	// Disconnecting tears down the one session she is actually in.
	h.handleDisconnect(a)
	assert.Equal(t, 0, h.registry.Len())
	assert.Equal(t, "opponentDisconnected", b.lastEvent(t)["type"])
}

func TestHub_DisconnectWhileWaiting(t *testing.T) {
	t.Parallel()

	h, _ := newTestHub(1)
	a := newRecorderClient("conn-a")
	b := newRecorderClient("conn-b")

	h.handleFindGame(a, "ana")
	h.handleDisconnect(a)

	assert.Empty(t, h.waiting)
	assert.True(t, a.isReleased())

	// ben must not get matched against the departed ana.
	h.handleFindGame(b, "ben")
	assert.Equal(t, "waiting", b.lastEvent(t)["type"])
	assert.Equal(t, 0, h.registry.Len())
}

func TestHub_DisconnectMidSessionTearsDownRoom(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")

	h.handleDisconnect(a)

	assert.Equal(t, "opponentDisconnected", b.lastEvent(t)["type"])
	assert.True(t, a.isReleased())
	assert.True(t, b.isReleased())
	assert.Equal(t, 0, h.registry.Len())
	assert.Empty(t, h.roomByClient)

	// Late events referencing the dead room are no-ops.
	b.reset()
	h.handleEvent(clientEvent{from: b, env: ClientEnvelope{Type: TypeChatMessage, RoomID: "room-1", Text: "anyone?"}})
	h.handleTick(time.Now())
	assert.Empty(t, b.events(t))
}

func TestHub_SubmissionVerdictFlow(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")

	h.handleEvent(clientEvent{from: a, env: ClientEnvelope{
		Type: TypeSubmitDiagnosis, RoomID: "room-1", Text: "dehydration",
	}})

	select {
	case v := <-h.verdicts:
		assert.True(t, v.correct)
		h.handleVerdict(v)
	case <-time.After(2 * time.Second):
		t.Fatal("no verdict produced")
	}

	for _, c := range []*recorderClient{a, b} {
		results := c.eventsOfType(t, "diagnosisResult")
		require.Len(t, results, 1)
		assert.Equal(t, true, results[0]["correct"])
		assert.EqualValues(t, 10, results[0]["score"])
	}
	assert.Equal(t, 1, h.registry.Len())
}

func TestHub_VerdictForRemovedRoomIsDropped(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")

	h.handleEvent(clientEvent{from: a, env: ClientEnvelope{
		Type: TypeSubmitDiagnosis, RoomID: "room-1", Text: "dehydration",
	}})

	// The opponent drops while the oracle is still thinking.
	h.handleDisconnect(b)
	require.Equal(t, 0, h.registry.Len())
	a.reset()

	v := <-h.verdicts
	h.handleVerdict(v)

	assert.Empty(t, a.events(t))
}

func TestHub_DuplicateRoomIdAborts(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	idgen.On("Generate").Return("room-dup")

	a := newRecorderClient("conn-a")
	b := newRecorderClient("conn-b")
	c := newRecorderClient("conn-c")
	d := newRecorderClient("conn-d")

	h.handleFindGame(a, "ana")
	h.handleFindGame(b, "ben")
	require.Equal(t, 1, h.registry.Len())

	// The generator misbehaving must not clobber the existing session.
	h.handleFindGame(c, "cleo")
	h.handleFindGame(d, "dan")

	assert.Equal(t, 1, h.registry.Len())
	assert.Empty(t, d.eventsOfType(t, "gameStart"))
	existing, ok := h.registry.Lookup("room-dup")
	require.True(t, ok)
	assert.Equal(t, "ana", existing.seats[1].name)

	// Both halves of the failed pairing are back in the queue, oldest first,
	// and both were told they are waiting again.
	require.Len(t, h.waiting, 2)
	assert.Equal(t, "cleo", h.waiting[0].name)
	assert.Equal(t, "dan", h.waiting[1].name)
	assert.Equal(t, "waiting", c.lastEvent(t)["type"])
	assert.Equal(t, "waiting", d.lastEvent(t)["type"])
}

func TestHub_PingFanOut(t *testing.T) {
	t.Parallel()

	h, idgen := newTestHub(1)
	a, b := pairUp(t, h, idgen, "room-1")

	w := newRecorderClient("conn-w")
	h.handleFindGame(w, "willa")

	h.pingAll()

	assert.Equal(t, 1, a.pingCount())
	assert.Equal(t, 1, b.pingCount())
	assert.Equal(t, 1, w.pingCount())
}

func TestHub_RunLoop(t *testing.T) {
	t.Parallel()

	idgen := &MockUniqueIdGenerator{}
	idgen.On("Generate").Return("room-1").Once()

	tickers := &MockPeriodicTickerChannelCreator{}
	ticker := make(chan time.Time)
	pingTicker := make(chan time.Time)
	tickers.On("Create", time.Second).Return(ticker)
	tickers.On("Create", time.Second*30).Return(pingTicker)

	h := NewHub(defaultConfigs(), idgen, tickers, nil, rand.New(rand.NewSource(1)))
	started := make(chan struct{})
	go h.Run(started)
	<-started

	a := newRecorderClient("conn-a")
	b := newRecorderClient("conn-b")
	ctx := context.Background()

	h.Dispatch(ctx, a, ClientEnvelope{Type: TypeFindGame, Name: "ana"})
	h.Dispatch(ctx, b, ClientEnvelope{Type: TypeFindGame, Name: "ben"})

	require.Eventually(t, func() bool {
		return len(b.eventsOfType(t, "gameStart")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ticker <- time.Now()
	require.Eventually(t, func() bool {
		return len(a.eventsOfType(t, "timerUpdate")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	pingTicker <- time.Now()
	require.Eventually(t, func() bool {
		return a.pingCount() == 1 && b.pingCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	tickers.AssertExpectations(t)
	idgen.AssertExpectations(t)
}
