// Package async provides safe background execution for fire-and-forget
// webhook dispatch.
//
// SafeGo wraps a bare `go func()` with panic recovery, a timeout, and error
// logging so a misbehaving dispatch cannot crash the service or leak a
// goroutine forever.
package async

import (
	"context"
	"log"
	"runtime/debug"
	"time"
)

// SafeGo executes fn in a goroutine with:
// - Context cancellation support
// - Panic recovery
// - Timeout enforcement
// - Error logging
//
// Use this instead of bare `go func()` for background dispatch.
//
// Example:
//
//	SafeGo(context.Background(), 5*time.Minute, "webhook dispatch", func(ctx context.Context) error {
//	    _, err := client.Trigger(ctx, eventType, data)
//	    return err
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.Printf("[SafeGo] PANIC in %s: %v\nStack trace:\n%s",
					taskName, r, string(debug.Stack()))
			}
		}()

		if err := fn(ctx); err != nil {
			// Log error but don't crash; the caller already detached.
			log.Printf("[SafeGo] Error in %s: %v", taskName, err)
		}
	}()
}

// SafeGoNoError is like SafeGo but for functions that don't return errors.
func SafeGoNoError(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context)) {
	SafeGo(parentCtx, timeout, taskName, func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}
