package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock is the only source of "now" for date math.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func System() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(System),
)

// Today truncates t to midnight in its own location.
func Today(c Clock) time.Time {
	return StartOfDay(c.Now())
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
