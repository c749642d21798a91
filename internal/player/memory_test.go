package player

import (
	"testing"
	"time"
)

func TestMemory_PlayStopLifecycle(t *testing.T) {
	p := NewMemory(DefaultFormat())
	track := Silence(DefaultFormat(), time.Minute)

	if err := p.Play(track); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if p.State() != StatePlaying {
		t.Errorf("State = %v, want playing", p.State())
	}
	if p.TrackDuration() != time.Minute {
		t.Errorf("TrackDuration = %v, want 1m", p.TrackDuration())
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if p.State() != StateStopped {
		t.Errorf("State after Stop = %v, want stopped", p.State())
	}
	if p.Position() != 0 {
		t.Errorf("Position after Stop = %v, want 0", p.Position())
	}
}

func TestMemory_TrackRunsOut(t *testing.T) {
	p := NewMemory(DefaultFormat())
	if err := p.Play(Silence(DefaultFormat(), 30*time.Millisecond)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.State() != StateStopped {
		if time.Now().After(deadline) {
			t.Fatal("short track never reached stopped state")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMemory_PauseFreezesPosition(t *testing.T) {
	p := NewMemory(DefaultFormat())
	if err := p.Play(Silence(DefaultFormat(), time.Minute)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if err := p.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	at := p.Position()
	if at == 0 {
		t.Fatal("paused at position 0, expected some progress")
	}
	time.Sleep(30 * time.Millisecond)
	if got := p.Position(); got != at {
		t.Errorf("Position drifted to %v while paused at %v", got, at)
	}

	if err := p.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if got := p.Position(); got <= at {
		t.Errorf("Position = %v after resume, want > %v", got, at)
	}

	// Resume only applies while paused.
	if err := p.Resume(); err == nil {
		t.Error("Resume succeeded while already playing")
	}
}

func TestMemory_PlayWAVChecksFormat(t *testing.T) {
	p := NewMemory(Format{SampleRate: 44100, Channels: 2, BitDepth: 16})

	mono := wavFile(t, Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, make([]byte, 32))
	if err := p.Play(mono); err == nil {
		t.Error("Play accepted a WAV in the wrong format")
	}

	stereo := wavFile(t, Format{SampleRate: 44100, Channels: 2, BitDepth: 16}, make([]byte, 32))
	if err := p.Play(stereo); err != nil {
		t.Errorf("Play rejected a matching WAV: %v", err)
	}
}

func TestMemory_VolumeBounds(t *testing.T) {
	p := NewMemory(DefaultFormat())
	if err := p.SetVolume(1.5); err == nil {
		t.Error("SetVolume accepted 1.5")
	}
	if err := p.SetVolume(0.25); err != nil {
		t.Errorf("SetVolume failed: %v", err)
	}
	if p.Volume() != 0.25 {
		t.Errorf("Volume = %v, want 0.25", p.Volume())
	}
}

func TestMemory_ClosedIsFinal(t *testing.T) {
	p := NewMemory(DefaultFormat())
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Play(Silence(DefaultFormat(), time.Second)); err == nil {
		t.Error("Play succeeded on a closed player")
	}
	if p.State() != StateClosed {
		t.Errorf("State = %v, want closed", p.State())
	}
}
