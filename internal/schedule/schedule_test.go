package schedule

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stellarlinkco/onair/internal/config"
)

type nopBroadcast struct{ ran chan struct{} }

func (b *nopBroadcast) Run(ctx context.Context) {
	close(b.ran)
	<-ctx.Done()
}

type nopEnder struct{ ran bool }

func (e *nopEnder) Run(context.Context) error {
	e.ran = true
	return nil
}

func newScheduler(t *testing.T, cfg config.ScheduleConfig) *Scheduler {
	t.Helper()
	s, err := New(cfg, &nopBroadcast{ran: make(chan struct{})}, &nopEnder{}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNextStartWeekly(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{
		StartTimes: []config.StartEntry{
			{Day: "friday", Time: "20:00"},
			{Day: "sunday", Time: "14:30"},
		},
	})

	// A Wednesday noon.
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	next, ok := s.NextStart(now)
	if !ok {
		t.Fatal("no next start")
	}
	want := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %s, want %s", next, want)
	}
}

func TestNextStartSameDayLaterTime(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{
		StartTimes: []config.StartEntry{{Day: "wednesday", Time: "18:00"}},
	})
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) // Wednesday noon
	next, _ := s.NextStart(now)
	if next.Day() != 26 || next.Hour() != 18 {
		t.Fatalf("next = %s, want same day 18:00", next)
	}
}

func TestNextStartSameDayPassedTimeRollsAWeek(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{
		StartTimes: []config.StartEntry{{Day: "wednesday", Time: "09:00"}},
	})
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	next, _ := s.NextStart(now)
	want := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %s, want %s", next, want)
	}
}

func TestNextStartCronExpr(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{CronExprs: []string{"0 21 * * 6"}})
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	next, ok := s.NextStart(now)
	if !ok {
		t.Fatal("no next start from cron")
	}
	if next.Weekday() != time.Saturday || next.Hour() != 21 {
		t.Fatalf("next = %s, want Saturday 21:00", next)
	}
}

func TestNewRejectsBadEntries(t *testing.T) {
	bad := []config.ScheduleConfig{
		{StartTimes: []config.StartEntry{{Day: "noday", Time: "10:00"}}},
		{StartTimes: []config.StartEntry{{Day: "monday", Time: "25:00"}}},
		{StartTimes: []config.StartEntry{{Day: "monday", Time: "10-00"}}},
		{CronExprs: []string{"not a cron"}},
	}
	for _, cfg := range bad {
		if _, err := New(cfg, nil, nil, rand.New(rand.NewSource(1))); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestDurationStaysInWindow(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{
		Duration: config.DurationCfg{MinMinutes: 360, MaxMinutes: 420},
	})
	for i := 0; i < 100; i++ {
		d := s.Duration()
		if d < 360*time.Minute || d > 420*time.Minute {
			t.Fatalf("duration = %s, want [6h, 7h]", d)
		}
	}
}

func TestRunWithEmptyTimetableReturns(t *testing.T) {
	s := newScheduler(t, config.ScheduleConfig{})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunSessionRunsEnderThenStopsLoop(t *testing.T) {
	b := &nopBroadcast{ran: make(chan struct{})}
	e := &nopEnder{}
	s, err := New(config.ScheduleConfig{
		Duration: config.DurationCfg{MinMinutes: 1, MaxMinutes: 1},
		Ending:   config.EndingConfig{WindDownMinutes: 1},
	}, b, e, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Duration 1m and wind-down 1m leave zero main time, so the session
	// goes straight to the ending.
	if err := s.RunSession(context.Background()); err != nil {
		t.Fatalf("RunSession: %v", err)
	}
	select {
	case <-b.ran:
	default:
		t.Fatal("broadcast never ran")
	}
	if !e.ran {
		t.Fatal("ender never ran")
	}
}
