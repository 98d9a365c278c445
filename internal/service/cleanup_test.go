package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingPurger struct {
	runs atomic.Int32
	err  error
}

func (p *countingPurger) DeleteExpired(ctx context.Context) (int64, error) {
	p.runs.Add(1)
	return 2, p.err
}

func TestExpirySweeper_RunNow(t *testing.T) {
	p := &countingPurger{}
	s := NewExpirySweeper(p, SweeperConfig{})

	n, err := s.RunNow()
	if err != nil || n != 2 {
		t.Errorf("RunNow() = %d, %v", n, err)
	}

	p.err = errors.New("db down")
	if _, err := s.RunNow(); err == nil {
		t.Error("RunNow() error = nil")
	}
}

func TestExpirySweeper_RunsOnSchedule(t *testing.T) {
	p := &countingPurger{}
	s := NewExpirySweeper(p, SweeperConfig{Interval: 10 * time.Millisecond, InitialDelay: 5 * time.Millisecond})
	s.Start()
	s.Start()

	deadline := time.Now().Add(2 * time.Second)
	for p.runs.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper ran %d times", p.runs.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Stop()
	s.Stop()
}

func TestExpirySweeper_StopBeforeStart(t *testing.T) {
	p := &countingPurger{}
	s := NewExpirySweeper(p, SweeperConfig{InitialDelay: time.Millisecond})
	s.Stop()
	s.Start()
	s.Stop()

	time.Sleep(10 * time.Millisecond)
	if n := p.runs.Load(); n != 0 {
		t.Errorf("stopped sweeper ran %d times", n)
	}
}
