package rollover

import (
	"context"
	"log"
	"time"
)

// Scheduler ticks the controller. Closure is time-driven, never
// request-driven: the API can trigger a manual run, but the scheduler is
// what notices a period boundary passing.
type Scheduler struct {
	controller *Controller
	interval   time.Duration
	tickBudget time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewScheduler(controller *Controller, interval time.Duration) *Scheduler {
	if controller == nil {
		panic("controller is required")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		controller: controller,
		interval:   interval,
		tickBudget: 30 * time.Minute,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the scheduling goroutine. One immediate tick runs before
// the ticker so a restart during a period boundary does not wait a full
// interval.
func (s *Scheduler) Start() {
	go s.loop()
}

// Stop halts the scheduler and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	s.tick()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.tickBudget)
	defer cancel()
	if err := s.controller.RunDue(ctx); err != nil {
		log.Printf("rollover: scheduled run failed: %v", err)
	}
}
