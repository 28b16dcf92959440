package okx

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ctx到期时await立即返回，不等底层请求结束
func TestAwaitHonorsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	_, err := await(ctx, func() (int, error) {
		<-block
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("await must return as soon as ctx expires, took %s", elapsed)
	}
}

func TestAwaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	done := make(chan error, 1)
	go func() {
		_, err := await(ctx, func() (int, error) {
			<-block
			return 1, nil
		})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("await must return after cancel")
	}
}

func TestAwaitPassesThroughResult(t *testing.T) {
	got, err := await(context.Background(), func() (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("expected ok, got %q err %v", got, err)
	}

	wantErr := errors.New("exchange unavailable")
	_, err = await(context.Background(), func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected underlying error, got %v", err)
	}
}
