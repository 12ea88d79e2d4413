package main

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchSignals_StopsOnSignal(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	defer close(done)
	stopped := make(chan struct{})

	go watchSignals(sigCh, done, func() { close(stopped) })
	sigCh <- syscall.SIGTERM

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop not called after signal")
	}
}

func TestWatchSignals_ReturnsWhenDone(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	returned := make(chan struct{})

	go func() {
		watchSignals(sigCh, done, func() { t.Error("stop called without a signal") })
		close(returned)
	}()
	close(done)

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("watcher still running after run finished")
	}
}
