package game

import (
	"encoding/json"

	"astrovet/shared/logger"
)

// PublicState is the role-filtered view of a session sent to one
// participant. Clue always belongs to the receiver's own role; animal,
// sprite and colors are presentation payload relayed untouched.
type PublicState struct {
	Animal       string    `json:"animal"`
	Clue         string    `json:"clue"`
	Role         Role      `json:"role"`
	CurrentRound int       `json:"currentRound"`
	MaxRounds    int       `json:"maxRounds"`
	Score        int       `json:"score"`
	Lives        int       `json:"lives"`
	Timer        int       `json:"timer"`
	Phase        Phase     `json:"phase"`
	Sprite       string    `json:"sprite"`
	Colors       [2]string `json:"colors"`
}

// ChatEntry is one relayed chat line, kept only for the current round.
type ChatEntry struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type waitingEvent struct {
	Type string `json:"type"`
}

type gameStartEvent struct {
	Type         string      `json:"type"`
	RoomID       string      `json:"roomId"`
	Role         Role        `json:"role"`
	OpponentName string      `json:"opponentName"`
	PublicState  PublicState `json:"publicState"`
}

type newRoundEvent struct {
	Type        string      `json:"type"`
	PublicState PublicState `json:"publicState"`
}

type timerUpdateEvent struct {
	Type             string `json:"type"`
	SecondsRemaining int    `json:"secondsRemaining"`
}

type chatMessageEvent struct {
	Type string `json:"type"`
	ChatEntry
}

type diagnosisResultEvent struct {
	Type            string `json:"type"`
	Correct         bool   `json:"correct"`
	CorrectAnswer   string `json:"correctAnswer"`
	SubmittedAnswer string `json:"submittedAnswer"`
	Score           int    `json:"score"`
	Lives           int    `json:"lives"`
}

type gameOverEvent struct {
	Type            string `json:"type"`
	Reason          string `json:"reason"`
	FinalScore      int    `json:"finalScore"`
	RoundsCompleted int    `json:"roundsCompleted"`
}

type opponentDisconnectedEvent struct {
	Type string `json:"type"`
}

func marshalEvent(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Criticalf("failed to marshal outbound event: %v", err)
		return nil
	}
	return data
}

func MakeWaiting() []byte {
	return marshalEvent(waitingEvent{Type: "waiting"})
}

func MakeGameStart(roomID string, role Role, opponentName string, state PublicState) []byte {
	return marshalEvent(gameStartEvent{
		Type:         "gameStart",
		RoomID:       roomID,
		Role:         role,
		OpponentName: opponentName,
		PublicState:  state,
	})
}

func MakeNewRound(state PublicState) []byte {
	return marshalEvent(newRoundEvent{Type: "newRound", PublicState: state})
}

func MakeTimerUpdate(seconds int) []byte {
	return marshalEvent(timerUpdateEvent{Type: "timerUpdate", SecondsRemaining: seconds})
}

func MakeChatMessage(entry ChatEntry) []byte {
	return marshalEvent(chatMessageEvent{Type: "chatMessage", ChatEntry: entry})
}

func MakeDiagnosisResult(correct bool, correctAnswer, submitted string, score, lives int) []byte {
	return marshalEvent(diagnosisResultEvent{
		Type:            "diagnosisResult",
		Correct:         correct,
		CorrectAnswer:   correctAnswer,
		SubmittedAnswer: submitted,
		Score:           score,
		Lives:           lives,
	})
}

func MakeGameOver(reason string, finalScore, roundsCompleted int) []byte {
	return marshalEvent(gameOverEvent{
		Type:            "gameOver",
		Reason:          reason,
		FinalScore:      finalScore,
		RoundsCompleted: roundsCompleted,
	})
}

func MakeOpponentDisconnected() []byte {
	return marshalEvent(opponentDisconnectedEvent{Type: "opponentDisconnected"})
}
