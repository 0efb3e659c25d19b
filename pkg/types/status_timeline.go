package types

import "time"

// StatusEvent is one entry in an order's status history.
type StatusEvent struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
}

// StatusTimeline is the append-only status history stored as jsonb on the
// order row, oldest first.
type StatusTimeline []StatusEvent

// Append returns a new timeline with the event added at the end.
func (t StatusTimeline) Append(status, actor string, at time.Time) StatusTimeline {
	next := make(StatusTimeline, 0, len(t)+1)
	next = append(next, t...)
	next = append(next, StatusEvent{Status: status, At: at, Actor: actor})
	return next
}

// Latest returns the most recent event, or a zero event for an empty timeline.
func (t StatusTimeline) Latest() StatusEvent {
	if len(t) == 0 {
		return StatusEvent{}
	}
	return t[len(t)-1]
}
