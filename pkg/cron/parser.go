package cron

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Shorthand sync schedules understood by the federation service.
var shorthandUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
}

type CronSchedule struct {
	expr string
	spec cron.Schedule
}

// ParseSyncSchedule parses either a shorthand interval such as "m1", "m5",
// "h1", "h6", "d1" or a standard five field cron expression.
func ParseSyncSchedule(expr string) (*CronSchedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	if every, ok := parseShorthand(expr); ok {
		return &CronSchedule{
			expr: expr,
			spec: cron.Every(every),
		}, nil
	}

	return ParseCronExpression(expr)
}

func ParseCronExpression(expr string) (*CronSchedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, ErrInvalidCronExpression
	}

	return &CronSchedule{
		expr: expr,
		spec: spec,
	}, nil
}

func ValidateSyncSchedule(expr string) error {
	_, err := ParseSyncSchedule(expr)

	return err
}

func (s *CronSchedule) String() string {
	return s.expr
}

func CalculateNextRun(schedule *CronSchedule, from time.Time, timezone string) time.Time {
	if schedule == nil || schedule.spec == nil {
		return time.Time{}
	}

	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			loc = time.UTC
		}
	}

	return schedule.spec.Next(from.In(loc))
}

func parseShorthand(expr string) (time.Duration, bool) {
	if len(expr) < 2 {
		return 0, false
	}

	unit, ok := shorthandUnits[expr[0]]
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(expr[1:])
	if err != nil || n <= 0 {
		return 0, false
	}

	return time.Duration(n) * unit, true
}
