package events

import "time"

const ScoresCalculatedTopic = "workforce.scores.calculated.v1"

type ScoresCalculatedEvent struct {
	EventType  string    `json:"event_type"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Processed  int       `json:"processed"`
	Failed     int       `json:"failed"`
	OccurredAt time.Time `json:"occurred_at"`
}
