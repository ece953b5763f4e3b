package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts both the standard 5-field form and a leading
// optional seconds field ("0 */5 * * * *"), matching the expressions
// the admission API is expected to receive.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextCron parses expr as a cron expression and returns the first
// scheduled instant strictly after now. It returns (zero, false) on any
// parse failure — the caller treats that as a terminal CronParseFailure.
func NextCron(expr string, now time.Time) (time.Time, bool) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(now)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
