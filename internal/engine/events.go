// internal/engine/events.go
//
// Event recording: a Recorder adapts the Hooks callbacks into a drainable
// list of wire-friendly events, for the HTTP response and the websocket feed.

package engine

// Event is one outward notification in wire form.
type Event struct {
	Type       string       `json:"type"`
	Amount     int          `json:"amount,omitempty"`
	Moves      int          `json:"moves,omitempty"`
	Matches    int          `json:"matches,omitempty"`
	Target     int          `json:"target,omitempty"`
	RuleID     string       `json:"ruleId,omitempty"`
	Reward     *BonusReward `json:"reward,omitempty"`
	Success    *bool        `json:"success,omitempty"`
	FinalScore int          `json:"finalScore,omitempty"`
}

// Recorder buffers events emitted by a round until drained. Not safe for
// concurrent use; callers serialize Select and Drain.
type Recorder struct {
	events []Event
}

// Hooks returns the hook set that feeds this recorder.
func (rec *Recorder) Hooks() Hooks {
	return Hooks{
		ScoreDelta: func(amount int) {
			rec.events = append(rec.events, Event{Type: "scoreDelta", Amount: amount})
		},
		MovesLeftChanged: func(n int) {
			rec.events = append(rec.events, Event{Type: "movesLeftChanged", Moves: n})
		},
		MatchProgress: func(matches, target int) {
			rec.events = append(rec.events, Event{Type: "matchProgress", Matches: matches, Target: target})
		},
		BonusTriggered: func(ruleID string, reward BonusReward) {
			r := reward
			rec.events = append(rec.events, Event{Type: "bonusTriggered", RuleID: ruleID, Reward: &r})
		},
		RoundEnded: func(success bool, finalScore int) {
			s := success
			rec.events = append(rec.events, Event{Type: "roundEnded", Success: &s, FinalScore: finalScore})
		},
	}
}

// Drain returns the buffered events and resets the buffer.
func (rec *Recorder) Drain() []Event {
	out := rec.events
	rec.events = nil
	return out
}
