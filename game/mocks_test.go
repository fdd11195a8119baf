package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"astrovet/catalog"
)

// --- Conn ---

type MockConn struct {
	mock.Mock
}

func (m *MockConn) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockConn) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockConn) Read() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockConn) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- Evaluator ---

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, answer string, sc catalog.Scenario) (bool, error) {
	args := m.Called(ctx, answer, sc)
	return args.Bool(0), args.Error(1)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- EventSink ---

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Dispatch(ctx context.Context, from Client, env ClientEnvelope) {
	m.Called(ctx, from, env)
}

func (m *MockEventSink) Disconnect(c Client) {
	m.Called(c)
}

// recorderClient captures every frame sent to one participant so tests can
// assert on decoded payloads.
type recorderClient struct {
	key string

	mu       sync.Mutex
	sent     [][]byte
	pings    int
	released bool
}

func newRecorderClient(key string) *recorderClient {
	return &recorderClient{key: key}
}

func (c *recorderClient) Key() string { return c.key }

func (c *recorderClient) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	c.sent = append(c.sent, cp)
	return nil
}

func (c *recorderClient) Ping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
}

func (c *recorderClient) CancelAndRelease() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

func (c *recorderClient) isReleased() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *recorderClient) pingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}

// events decodes every captured frame into a generic map.
func (c *recorderClient) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]map[string]any, 0, len(c.sent))
	for _, data := range c.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		out = append(out, m)
	}
	return out
}

// eventsOfType filters decoded frames by their type field.
func (c *recorderClient) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ev := range c.events(t) {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *recorderClient) lastEvent(t *testing.T) map[string]any {
	t.Helper()
	evs := c.events(t)
	require.NotEmpty(t, evs)
	return evs[len(evs)-1]
}

func (c *recorderClient) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
