package scheduler

import (
	"errors"
	"testing"
)

func TestGuardRejectsOverlap(t *testing.T) {
	var g Guard
	inner := false

	ran, err := g.TryRun(func() error {
		if !g.Busy() {
			t.Error("Busy() = false inside run")
		}
		innerRan, _ := g.TryRun(func() error {
			inner = true
			return nil
		})
		if innerRan {
			t.Error("nested TryRun ran while guard was held")
		}
		return nil
	})
	if !ran || err != nil {
		t.Fatalf("TryRun() = (%v, %v), want (true, nil)", ran, err)
	}
	if inner {
		t.Error("overlapping run executed")
	}
	if g.Busy() {
		t.Error("guard still held after run")
	}
}

func TestGuardReleasedOnError(t *testing.T) {
	var g Guard
	want := errors.New("boom")

	ran, err := g.TryRun(func() error { return want })
	if !ran || !errors.Is(err, want) {
		t.Fatalf("TryRun() = (%v, %v), want (true, boom)", ran, err)
	}
	if g.Busy() {
		t.Error("guard still held after error")
	}
}

func TestGuardReleasedOnPanic(t *testing.T) {
	var g Guard

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("TryRun() swallowed the panic")
			}
		}()
		_, _ = g.TryRun(func() error { panic("cycle blew up") })
	}()

	if g.Busy() {
		t.Fatal("guard still held after panic")
	}
	ran, _ := g.TryRun(func() error { return nil })
	if !ran {
		t.Error("TryRun() after panic did not run")
	}
}
