package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Active-matching schedule constants (§4.4).
const (
	TriggerPeriod = 8 * time.Hour
)

// Trigger fires an active-matching procedure on a fixed cadence with a
// per-bot startup offset, staggering bots in the same process so they do
// not all hit the directory at once (C4, §4.4).
type Trigger struct {
	delay  time.Duration
	period time.Duration
	run    func(context.Context)
	logger *zap.SugaredLogger

	timer  *time.Timer
	cancel context.CancelFunc
}

// StartupDelay computes the initial delay: "1 hour +
// (load_balancing_delay_seconds * number_of_bots_in_process)" (§4.4).
func StartupDelay(loadBalancingDelaySeconds int, botsInProcess int) time.Duration {
	return time.Hour + time.Duration(loadBalancingDelaySeconds*botsInProcess)*time.Second
}

// NewTrigger schedules run to fire after the computed startup delay and
// every TriggerPeriod thereafter. Call Stop to cancel deterministically.
func NewTrigger(ctx context.Context, loadBalancingDelaySeconds, botsInProcess int, run func(context.Context), logger *zap.SugaredLogger) *Trigger {
	runCtx, cancel := context.WithCancel(ctx)
	t := &Trigger{
		delay:  StartupDelay(loadBalancingDelaySeconds, botsInProcess),
		period: TriggerPeriod,
		run:    run,
		logger: logger,
		cancel: cancel,
	}
	t.schedule(runCtx)
	return t
}

func (t *Trigger) schedule(ctx context.Context) {
	t.timer = time.AfterFunc(t.delay, func() {
		t.fire(ctx)
	})
}

func (t *Trigger) fire(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	func() {
		defer func() {
			if r := recover(); r != nil && t.logger != nil {
				t.logger.Errorw("active-matching trigger panicked", "panic", r)
			}
		}()
		t.run(ctx)
	}()

	select {
	case <-ctx.Done():
		return
	default:
		t.timer = time.AfterFunc(t.period, func() { t.fire(ctx) })
	}
}

// Stop cancels the timer and releases all scoped resources
// deterministically (§4.4 "On shutdown").
func (t *Trigger) Stop() {
	t.cancel()
	if t.timer != nil {
		t.timer.Stop()
	}
}
