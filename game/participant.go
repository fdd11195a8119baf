package game

import (
	"context"
	"encoding/json"
	"sync"

	"astrovet/shared/logger"
)

// Participant owns one websocket connection: a read pump feeding the hub and
// a write pump draining the outbox. It implements Client.
type Participant struct {
	key       string
	socket    Conn
	outbox    chan []byte
	pingChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewParticipant(key string, socket Conn) *Participant {
	return &Participant{
		key:      key,
		socket:   socket,
		outbox:   make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (p *Participant) Key() string {
	return p.key
}

// Send never blocks the hub loop: a released connection reports
// ErrClientGone, a saturated outbox drops the frame with ErrOutboxFull.
func (p *Participant) Send(data []byte) error {
	if data == nil {
		return nil
	}
	select {
	case <-p.done:
		return ErrClientGone
	default:
	}
	select {
	case p.outbox <- data:
		return nil
	default:
		return ErrOutboxFull
	}
}

func (p *Participant) Ping() {
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// CancelAndRelease stops the write pump. Safe to call more than once.
func (p *Participant) CancelAndRelease() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
}

// ReadPump decodes inbound frames and hands them to the sink. Any read error
// (including a normal close) turns into a disconnect.
func (p *Participant) ReadPump(ctx context.Context, sink EventSink) {
	defer sink.Disconnect(p)

	for {
		data, err := p.socket.Read()
		if err != nil {
			return
		}

		var env ClientEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Debugf("[Participant %s] dropping malformed frame: %v", p.key, err)
			continue
		}
		sink.Dispatch(ctx, p, env)
	}
}

func (p *Participant) WritePump() {
	defer p.socket.Close("")

	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				return
			}
		case <-p.done:
			p.drainOutbox()
			return
		}
	}
}

// drainOutbox flushes frames that were already queued when the connection was
// released. Terminal events are enqueued right before release, so without
// this flush they could die in the outbox.
func (p *Participant) drainOutbox() {
	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}
