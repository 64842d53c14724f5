package clock

import (
	"time"
)

// Clock is an interface around time.Now(). It has been added to aid
// unit testing of code that measures how long operations take.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock is a Clock that corresponds to the current time of day,
// as reported by the operating system.
var SystemClock Clock = systemClock{}
