// Package announcer drives the ring loop: announce, play, wait, repeat,
// until the user stops it.
package announcer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/satellite"
)

const errorRetryDelay = 2 * time.Second

// Outcome reports how a ring session ended.
type Outcome string

const (
	// OutcomeStopped means the user stopped the ring.
	OutcomeStopped Outcome = "stopped"
	// OutcomeExhausted means a configured attempt cap ran out.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeCanceled means the daemon is shutting down.
	OutcomeCanceled Outcome = "canceled"
)

// Request describes one ring session.
type Request struct {
	// Target is the satellite playback target, empty for the default.
	Target string
	// Text is the announcement phrase. Attempts after the first get an
	// "(attempt N)" suffix.
	Text string
	// MediaPath is the sound file played after each announcement.
	MediaPath string
	// MaxAttempts caps the repetition when positive. Zero or negative
	// means the ring repeats until stopped.
	MaxAttempts int
}

// Announcer runs ring sessions against a satellite.
type Announcer struct {
	sat satellite.Client
	log *logrus.Logger

	// Duration estimates how long a media file plays for. Overridable
	// in tests.
	Duration DurationFunc

	retryDelay time.Duration
}

// New creates an announcer bound to a satellite client.
func New(sat satellite.Client, log *logrus.Logger) *Announcer {
	return &Announcer{
		sat:        sat,
		log:        log,
		Duration:   EstimateFileDuration,
		retryDelay: errorRetryDelay,
	}
}

// Ring runs the announce/play/wait loop until stop is closed or ctx is
// canceled. There is no built-in attempt limit; only an explicit
// Request.MaxAttempts ends a session without a stop. Satellite errors are
// logged and the attempt is retried after a short delay rather than
// aborting the session.
func (a *Announcer) Ring(ctx context.Context, req Request, stop <-chan struct{}) Outcome {
	session := uuid.NewString()

	log := a.log.WithFields(logrus.Fields{
		"session": session,
		"target":  req.Target,
	})
	log.Info("ring session started")

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	states, err := a.sat.Subscribe(subCtx)
	if err != nil {
		// Without state updates each cycle simply rides out the media
		// duration; a nil channel never delivers.
		log.WithError(err).Warn("state subscription failed, running on timers only")
		states = nil
	}

	for attempt := 1; req.MaxAttempts <= 0 || attempt <= req.MaxAttempts; attempt++ {
		if done, outcome := a.checkDone(ctx, stop); done {
			return a.finish(log, outcome)
		}

		text := req.Text
		if attempt > 1 {
			text = fmt.Sprintf("%s (attempt %d)", req.Text, attempt)
		}

		if err := a.sat.Speak(ctx, req.Target, text); err != nil {
			log.WithError(err).Warn("announcement failed, retrying")
			if done, outcome := a.sleep(ctx, stop, a.retryDelay); done {
				return a.finish(log, outcome)
			}
			attempt--
			continue
		}

		if err := a.sat.Play(ctx, req.Target, req.MediaPath); err != nil {
			log.WithError(err).Warn("playback failed, retrying")
			if done, outcome := a.sleep(ctx, stop, a.retryDelay); done {
				return a.finish(log, outcome)
			}
			attempt--
			continue
		}

		if done, outcome := a.waitForCycle(ctx, stop, states, req.MediaPath); done {
			return a.finish(log, outcome)
		}
	}

	log.Info("ring session exhausted")
	return OutcomeExhausted
}

// waitForCycle waits out one announcement cycle: up to the media's estimated
// duration, watching the satellite state stream. Going idle after playback
// started ends the cycle early; listening holds the clock so a conversation
// with the assistant never competes with the ring.
func (a *Announcer) waitForCycle(ctx context.Context, stop <-chan struct{}, states <-chan satellite.State, mediaPath string) (bool, Outcome) {
	wait := a.Duration(mediaPath)
	timer := time.NewTimer(wait)
	defer timer.Stop()

	sawBusy := false
	listening := false
	for {
		select {
		case <-ctx.Done():
			return true, OutcomeCanceled
		case <-stop:
			return true, OutcomeStopped
		case st, ok := <-states:
			if !ok {
				return true, OutcomeCanceled
			}
			switch st {
			case satellite.StateListening:
				listening = true
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(wait)
			case satellite.StateResponding:
				listening = false
				sawBusy = true
			case satellite.StateIdle:
				listening = false
				if sawBusy {
					return false, ""
				}
			default:
				listening = false
			}
		case <-timer.C:
			if listening {
				timer.Reset(wait)
				continue
			}
			return false, ""
		}
	}
}

func (a *Announcer) checkDone(ctx context.Context, stop <-chan struct{}) (bool, Outcome) {
	select {
	case <-ctx.Done():
		return true, OutcomeCanceled
	case <-stop:
		return true, OutcomeStopped
	default:
		return false, ""
	}
}

func (a *Announcer) sleep(ctx context.Context, stop <-chan struct{}, d time.Duration) (bool, Outcome) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true, OutcomeCanceled
	case <-stop:
		return true, OutcomeStopped
	case <-t.C:
		return false, ""
	}
}

func (a *Announcer) finish(log *logrus.Entry, outcome Outcome) Outcome {
	log.WithField("outcome", outcome).Info("ring session ended")
	return outcome
}
