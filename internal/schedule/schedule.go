// Package schedule starts and ends broadcasts on a weekly timetable.
package schedule

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stellarlinkco/onair/internal/config"
)

// Broadcast is one live session: Run blocks until its context is
// cancelled.
type Broadcast interface {
	Run(ctx context.Context)
}

// Ender walks the wind-down timeline and returns when the broadcast has
// fully terminated.
type Ender interface {
	Run(ctx context.Context) error
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Scheduler owns the timetable: weekly day/time entries plus optional
// cron expressions, a randomized duration per session, and the ending
// timeline anchored to the session's end.
type Scheduler struct {
	cfg       config.ScheduleConfig
	crons     []cron.Schedule
	rng       *rand.Rand
	broadcast Broadcast
	ender     Ender
}

func New(cfg config.ScheduleConfig, broadcast Broadcast, ender Ender, rng *rand.Rand) (*Scheduler, error) {
	s := &Scheduler{cfg: cfg, rng: rng, broadcast: broadcast, ender: ender}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, expr := range cfg.CronExprs {
		sched, err := parser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", expr, err)
		}
		s.crons = append(s.crons, sched)
	}
	for _, entry := range cfg.StartTimes {
		if _, err := parseEntry(entry); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type weeklyEntry struct {
	day          time.Weekday
	hour, minute int
}

func parseEntry(e config.StartEntry) (weeklyEntry, error) {
	day, ok := weekdays[strings.ToLower(e.Day)]
	if !ok {
		return weeklyEntry{}, fmt.Errorf("unknown weekday %q", e.Day)
	}
	hh, mm, ok := strings.Cut(e.Time, ":")
	if !ok {
		return weeklyEntry{}, fmt.Errorf("bad time %q, want HH:MM", e.Time)
	}
	hour, err1 := strconv.Atoi(hh)
	minute, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return weeklyEntry{}, fmt.Errorf("bad time %q, want HH:MM", e.Time)
	}
	return weeklyEntry{day: day, hour: hour, minute: minute}, nil
}

// NextStart returns the earliest upcoming start across the weekly
// entries and cron expressions. ok is false when the timetable is empty.
func (s *Scheduler) NextStart(now time.Time) (time.Time, bool) {
	var best time.Time
	consider := func(t time.Time) {
		if t.IsZero() || !t.After(now) {
			return
		}
		if best.IsZero() || t.Before(best) {
			best = t
		}
	}

	for _, e := range s.cfg.StartTimes {
		entry, err := parseEntry(e)
		if err != nil {
			continue
		}
		consider(nextWeekly(now, entry))
	}
	for _, sched := range s.crons {
		consider(sched.Next(now))
	}
	return best, !best.IsZero()
}

func nextWeekly(now time.Time, e weeklyEntry) time.Time {
	t := time.Date(now.Year(), now.Month(), now.Day(), e.hour, e.minute, 0, 0, now.Location())
	daysAhead := (int(e.day) - int(now.Weekday()) + 7) % 7
	t = t.AddDate(0, 0, daysAhead)
	if !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// Duration picks a random session length inside the configured window.
func (s *Scheduler) Duration() time.Duration {
	min, max := s.cfg.Duration.MinMinutes, s.cfg.Duration.MaxMinutes
	if min <= 0 {
		min = 360
	}
	if max <= min {
		return time.Duration(min) * time.Minute
	}
	return time.Duration(min+s.rng.Intn(max-min+1)) * time.Minute
}

// Run waits for each scheduled start and runs the session. With no
// timetable configured it warns and returns, leaving manual starts to
// the operator.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.cfg.StartTimes) == 0 && len(s.crons) == 0 {
		log.Printf("[schedule] no start times configured, nothing to do")
		return nil
	}

	for {
		next, ok := s.NextStart(time.Now())
		if !ok {
			log.Printf("[schedule] no upcoming start, stopping")
			return nil
		}
		log.Printf("[schedule] next broadcast at %s", next.Format(time.RFC1123))

		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		if err := s.RunSession(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[schedule] session failed: %v", err)
		}
	}
}

// RunSession runs one broadcast of randomized length: the loop starts
// immediately, the ending timeline kicks in at duration minus the
// wind-down window, and the loop stops once the ending has terminated.
func (s *Scheduler) RunSession(ctx context.Context) error {
	total := s.Duration()
	windDown := time.Duration(s.cfg.Ending.WindDownMinutes) * time.Minute
	mainPart := total - windDown
	if mainPart < 0 {
		mainPart = 0
	}
	log.Printf("[schedule] broadcast starting, planned length %s", total)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.broadcast.Run(sessionCtx)
		close(done)
	}()

	t := time.NewTimer(mainPart)
	select {
	case <-ctx.Done():
		t.Stop()
		cancel()
		<-done
		return ctx.Err()
	case <-t.C:
	}

	if err := s.ender.Run(ctx); err != nil && ctx.Err() == nil {
		log.Printf("[schedule] ending sequence failed: %v", err)
	}

	cancel()
	<-done
	log.Printf("[schedule] broadcast finished")
	return nil
}
