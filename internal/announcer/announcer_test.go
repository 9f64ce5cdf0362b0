package announcer

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ringdown/chimed/internal/satellite"
)

// fakeSatellite records calls and streams states from a script; the last
// scripted state repeats.
type fakeSatellite struct {
	mu       sync.Mutex
	spoken   []string
	played   []string
	states   []satellite.State
	speakErr error
}

func (f *fakeSatellite) Speak(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.speakErr != nil {
		err := f.speakErr
		f.speakErr = nil
		return err
	}
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSatellite) Play(_ context.Context, _, media string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, media)
	return nil
}

func (f *fakeSatellite) Subscribe(ctx context.Context) (<-chan satellite.State, error) {
	ch := make(chan satellite.State)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- f.nextState():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (f *fakeSatellite) nextState() satellite.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return satellite.StateIdle
	}
	st := f.states[0]
	if len(f.states) > 1 {
		f.states = f.states[1:]
	}
	return st
}

func (f *fakeSatellite) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func newTestAnnouncer(sat satellite.Client) *Announcer {
	log := logrus.New()
	log.SetOutput(io.Discard)

	a := New(sat, log)
	a.Duration = func(string) time.Duration { return 50 * time.Millisecond }
	a.retryDelay = 5 * time.Millisecond
	return a
}

func TestRingStopsWhenStopped(t *testing.T) {
	sat := &fakeSatellite{states: []satellite.State{satellite.StateResponding}}
	a := newTestAnnouncer(sat)

	stop := make(chan struct{})
	done := make(chan Outcome, 1)
	go func() {
		done <- a.Ring(context.Background(), Request{Text: "It's 7:00 AM"}, stop)
	}()

	time.Sleep(20 * time.Millisecond)
	close(stop)

	select {
	case outcome := <-done:
		if outcome != OutcomeStopped {
			t.Fatalf("Ring() = %v, want stopped", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Ring() did not return after stop")
	}

	if got := sat.spokenTexts(); len(got) == 0 || got[0] != "It's 7:00 AM" {
		t.Errorf("spoken = %v, want first announcement without suffix", got)
	}
}

func TestRingRepeatsUntilStopped(t *testing.T) {
	// Busy then idle on every cycle, never a stop: the ring must keep
	// going well past any historical cap instead of ending on its own.
	sat := &fakeSatellite{states: []satellite.State{satellite.StateResponding}}
	a := newTestAnnouncer(sat)
	a.Duration = func(string) time.Duration { return 5 * time.Millisecond }

	stop := make(chan struct{})
	done := make(chan Outcome, 1)
	go func() {
		done <- a.Ring(context.Background(), Request{Text: "Wake up"}, stop)
	}()

	select {
	case outcome := <-done:
		t.Fatalf("Ring() self-terminated with %v", outcome)
	case <-time.After(400 * time.Millisecond):
	}

	close(stop)
	if outcome := <-done; outcome != OutcomeStopped {
		t.Fatalf("Ring() = %v, want stopped", outcome)
	}
	if n := len(sat.spokenTexts()); n <= 10 {
		t.Errorf("announcements = %d, want more than 10 before the stop", n)
	}
}

func TestRingEscalatesAfterIdle(t *testing.T) {
	// Busy then idle: the first cycle drains early and the second
	// attempt announces with a suffix. An explicit cap still ends the
	// session.
	sat := &fakeSatellite{states: []satellite.State{
		satellite.StateResponding,
		satellite.StateIdle,
	}}
	a := newTestAnnouncer(sat)

	outcome := a.Ring(context.Background(), Request{Text: "Standup", MaxAttempts: 2}, make(chan struct{}))
	if outcome != OutcomeExhausted {
		t.Fatalf("Ring() = %v, want exhausted", outcome)
	}

	spoken := sat.spokenTexts()
	if len(spoken) != 2 {
		t.Fatalf("spoken = %v, want 2 announcements", spoken)
	}
	if spoken[0] != "Standup" {
		t.Errorf("first announcement = %q, want no suffix", spoken[0])
	}
	if !strings.Contains(spoken[1], "(attempt 2)") {
		t.Errorf("second announcement = %q, want attempt suffix", spoken[1])
	}
}

func TestRingListeningHoldsTheClock(t *testing.T) {
	// While the satellite is listening the deadline keeps moving, so the
	// ring neither escalates nor exhausts until stopped.
	sat := &fakeSatellite{states: []satellite.State{satellite.StateListening}}
	a := newTestAnnouncer(sat)

	stop := make(chan struct{})
	done := make(chan Outcome, 1)
	go func() {
		done <- a.Ring(context.Background(), Request{Text: "Lunch", MaxAttempts: 1}, stop)
	}()

	select {
	case outcome := <-done:
		t.Fatalf("Ring() returned %v while listening", outcome)
	case <-time.After(300 * time.Millisecond):
	}

	close(stop)
	if outcome := <-done; outcome != OutcomeStopped {
		t.Fatalf("Ring() = %v, want stopped", outcome)
	}
}

func TestRingRetriesAfterSpeakError(t *testing.T) {
	sat := &fakeSatellite{
		speakErr: errors.New("tts offline"),
		states:   []satellite.State{satellite.StateResponding, satellite.StateIdle},
	}
	a := newTestAnnouncer(sat)

	a.Ring(context.Background(), Request{Text: "Meds", MaxAttempts: 1}, make(chan struct{}))

	spoken := sat.spokenTexts()
	if len(spoken) != 1 || spoken[0] != "Meds" {
		t.Fatalf("spoken = %v, want one un-suffixed announcement after retry", spoken)
	}
}

func TestRingCanceledByContext(t *testing.T) {
	sat := &fakeSatellite{states: []satellite.State{satellite.StateResponding}}
	a := newTestAnnouncer(sat)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Outcome, 1)
	go func() {
		done <- a.Ring(ctx, Request{Text: "Bedtime"}, make(chan struct{}))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case outcome := <-done:
		if outcome != OutcomeCanceled {
			t.Fatalf("Ring() = %v, want canceled", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Ring() did not return after cancel")
	}
}

func TestEstimateFileDurationFallback(t *testing.T) {
	if d := EstimateFileDuration("/nonexistent/sound.mp3"); d != fallbackDuration {
		t.Errorf("EstimateFileDuration() = %v, want fallback %v", d, fallbackDuration)
	}
}
