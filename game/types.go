package game

import (
	"context"
	"time"

	"astrovet/catalog"
)

// Role is one of the two complementary perspectives on a scenario.
type Role string

const (
	RoleSpace Role = "space"
	RoleVet   Role = "vet"
)

func (r Role) Other() Role {
	if r == RoleSpace {
		return RoleVet
	}
	return RoleSpace
}

// Phase is the round state: playing (timer running, one submission accepted)
// or diagnosing (result computed, waiting for the next round or the end).
type Phase string

const (
	PhasePlaying    Phase = "playing"
	PhaseDiagnosing Phase = "diagnosing"
)

// Client is a connected participant as the hub sees it. The concrete
// implementation is Participant; tests substitute recorders.
type Client interface {
	Key() string
	Send(data []byte) error
	Ping()
	CancelAndRelease()
}

// Evaluator decides whether a submitted diagnosis matches the scenario.
type Evaluator interface {
	Evaluate(ctx context.Context, answer string, sc catalog.Scenario) (bool, error)
}

type UniqueIdGenerator interface {
	Generate() string
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// EventSink is where participant read pumps deliver decoded messages.
type EventSink interface {
	Dispatch(ctx context.Context, from Client, env ClientEnvelope)
	Disconnect(c Client)
}

// Inbound message types.
const (
	TypeFindGame        = "findGame"
	TypeChatMessage     = "chatMessage"
	TypeSubmitDiagnosis = "submitDiagnosis"
)

// ClientEnvelope is one decoded inbound frame. Fields beyond Type are only
// meaningful for the types that carry them.
type ClientEnvelope struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	RoomID string `json:"roomId,omitempty"`
	Text   string `json:"text,omitempty"`
}

type clientEvent struct {
	from Client
	env  ClientEnvelope
}

// verdictEvent carries an oracle verdict back into the hub loop.
type verdictEvent struct {
	roomID  string
	answer  string
	correct bool
}

// RoomConfigs are the per-session game parameters, fixed at creation.
type RoomConfigs struct {
	RoundSeconds int
	MaxRounds    int
	MaxLives     int
	AdvanceDelay time.Duration
}
