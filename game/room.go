package game

import (
	"context"
	"time"

	"astrovet/catalog"
	"astrovet/oracle"
	"astrovet/shared/logger"
)

// timeoutAnswer is the sentinel submitted-answer used when the round timer
// expires before anyone answers.
const timeoutAnswer = "Time ran out!"

const evaluateGuard = 15 * time.Second

type seat struct {
	client Client
	name   string
	role   Role
}

// Room is one two-player session. All mutation happens on the hub loop, so
// no locking is needed; the only concurrency is the oracle call, which runs
// off-loop and reports back through the verdicts channel.
type Room struct {
	id      string
	seats   [2]seat
	configs RoomConfigs

	round   int
	score   int
	lives   int
	phase   Phase
	seconds int

	selector *catalog.Selector
	scenario catalog.Scenario
	chat     []ChatEntry

	// nextAdvance schedules the diagnosing -> next-round transition;
	// zero means nothing is scheduled.
	nextAdvance time.Time
	// pending is set while an oracle verdict is in flight.
	pending bool

	evaluator Evaluator
	verdicts  chan<- verdictEvent
}

func NewRoom(id string, first, second seat, configs RoomConfigs, selector *catalog.Selector, evaluator Evaluator, verdicts chan<- verdictEvent) *Room {
	return &Room{
		id:        id,
		seats:     [2]seat{first, second},
		configs:   configs,
		round:     1,
		lives:     configs.MaxLives,
		phase:     PhasePlaying,
		seconds:   configs.RoundSeconds,
		selector:  selector,
		scenario:  selector.First(),
		evaluator: evaluator,
		verdicts:  verdicts,
	}
}

// start tells both participants the match is on. Each receives its own role,
// the opponent's name and its role-filtered view of round 1.
func (r *Room) start() {
	logger.Infof("[Room %s] Starting session: %s (%s) vs %s (%s)",
		r.id, r.seats[0].name, r.seats[0].role, r.seats[1].name, r.seats[1].role)

	for i, s := range r.seats {
		opponent := r.seats[1-i].name
		r.send(s, MakeGameStart(r.id, s.role, opponent, r.publicStateFor(s.role)))
	}
}

func (r *Room) publicStateFor(role Role) PublicState {
	clue := r.scenario.SpaceClue
	if role == RoleVet {
		clue = r.scenario.VetClue
	}
	return PublicState{
		Animal:       r.scenario.Animal,
		Clue:         clue,
		Role:         role,
		CurrentRound: r.round,
		MaxRounds:    r.configs.MaxRounds,
		Score:        r.score,
		Lives:        r.lives,
		Timer:        r.seconds,
		Phase:        r.phase,
		Sprite:       r.scenario.Sprite,
		Colors:       r.scenario.Colors,
	}
}

func (r *Room) seatOf(c Client) *seat {
	for i := range r.seats {
		if r.seats[i].client.Key() == c.Key() {
			return &r.seats[i]
		}
	}
	return nil
}

func (r *Room) peerOf(c Client) *seat {
	for i := range r.seats {
		if r.seats[i].client.Key() != c.Key() {
			return &r.seats[i]
		}
	}
	return nil
}

// handleChat relays a line verbatim to the whole room and keeps it in the
// round's ephemeral log. No filtering, no throttling.
func (r *Room) handleChat(from Client, text string, now time.Time) {
	s := r.seatOf(from)
	if s == nil {
		return
	}
	entry := ChatEntry{Sender: s.name, Text: text, Timestamp: now.UnixMilli()}
	r.chat = append(r.chat, entry)
	r.broadcast(MakeChatMessage(entry))
}

// handleSubmission is one of the two playing -> diagnosing triggers. The
// phase flips synchronously here, so a racing timer tick or second
// submission is a no-op before the oracle even starts.
func (r *Room) handleSubmission(from Client, text string) {
	if r.phase != PhasePlaying {
		return
	}
	if r.seatOf(from) == nil {
		return
	}

	r.phase = PhaseDiagnosing
	r.pending = true
	logger.Infof("[Room %s] Submission in round %d: %q", r.id, r.round, text)

	go r.evaluate(text, r.scenario)
}

// evaluate runs off the hub loop. Oracle failure degrades to the local
// substring match and never reaches the participants.
func (r *Room) evaluate(answer string, sc catalog.Scenario) {
	correct := false
	if r.evaluator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), evaluateGuard)
		defer cancel()

		ok, err := r.evaluator.Evaluate(ctx, answer, sc)
		if err != nil {
			logger.Warningf("[Room %s] Oracle unavailable, using fallback match: %v", r.id, err)
			correct = oracle.FallbackMatch(answer, sc.Diagnosis)
		} else {
			correct = ok
		}
	} else {
		correct = oracle.FallbackMatch(answer, sc.Diagnosis)
	}

	r.verdicts <- verdictEvent{roomID: r.id, answer: answer, correct: correct}
}

// handleVerdict applies an oracle verdict. Returns true when the session is
// over and must leave the registry.
func (r *Room) handleVerdict(answer string, correct bool, now time.Time) bool {
	if !r.pending {
		return false
	}
	r.pending = false

	if correct {
		r.score += 10
	} else {
		r.lives--
	}
	logger.Infof("[Room %s] Round %d verdict: correct=%v score=%d lives=%d", r.id, r.round, correct, r.score, r.lives)

	r.broadcast(MakeDiagnosisResult(correct, r.scenario.CorrectAnswer, answer, r.score, r.lives))
	return r.settle(now)
}

// settle is the shared post-result branch. Lives running out wins over the
// round limit when both hold at once.
func (r *Room) settle(now time.Time) bool {
	if r.lives <= 0 {
		r.broadcast(MakeGameOver("lives", r.score, r.round))
		return true
	}
	if r.round >= r.configs.MaxRounds {
		r.broadcast(MakeGameOver("completed", r.score, r.round))
		return true
	}
	r.nextAdvance = now.Add(r.configs.AdvanceDelay)
	return false
}

// Tick advances the room's clock by one second. Returns true when the
// session ended on this tick.
func (r *Room) Tick(now time.Time) bool {
	switch r.phase {
	case PhasePlaying:
		r.seconds--
		r.broadcast(MakeTimerUpdate(r.seconds))

		if r.seconds <= 0 {
			// Expiry is the other playing -> diagnosing trigger: an
			// implicit wrong answer.
			r.phase = PhaseDiagnosing
			r.lives--
			logger.Infof("[Room %s] Round %d timed out. Lives left: %d", r.id, r.round, r.lives)
			r.broadcast(MakeDiagnosisResult(false, r.scenario.CorrectAnswer, timeoutAnswer, r.score, r.lives))
			return r.settle(now)
		}

	case PhaseDiagnosing:
		if !r.pending && !r.nextAdvance.IsZero() && !now.Before(r.nextAdvance) {
			r.advance()
		}
	}
	return false
}

// advance starts the next round: fresh scenario, fresh timer, empty chat.
func (r *Room) advance() {
	r.round++
	r.phase = PhasePlaying
	r.chat = nil
	r.scenario = r.selector.Next()
	r.seconds = r.configs.RoundSeconds
	r.nextAdvance = time.Time{}

	logger.Infof("[Room %s] Round %d: %s", r.id, r.round, r.scenario.Animal)

	for _, s := range r.seats {
		r.send(s, MakeNewRound(r.publicStateFor(s.role)))
	}
}

// notifyPeerGone tells the participant still connected that the other one
// dropped.
func (r *Room) notifyPeerGone(leaver Client) {
	peer := r.peerOf(leaver)
	if peer == nil {
		return
	}
	r.send(*peer, MakeOpponentDisconnected())
}

func (r *Room) broadcast(data []byte) {
	if data == nil {
		return
	}
	for _, s := range r.seats {
		r.send(s, data)
	}
}

func (r *Room) send(s seat, data []byte) {
	if data == nil {
		return
	}
	if err := s.client.Send(data); err != nil {
		logger.Warningf("[Room %s] Dropping frame for %s: %v", r.id, s.name, err)
	}
}

func (r *Room) pingClients() {
	for _, s := range r.seats {
		s.client.Ping()
	}
}

func (r *Room) release() {
	for _, s := range r.seats {
		s.client.CancelAndRelease()
	}
}
