package bitrepair

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

// retryAttempts and retryBase bound the backoff blockio.DirectIO applies
// to a single Open/ReadAt/WriteAt call against the data, backup, or
// sidecar files: cold-storage media (network-attached archival stores,
// spun-down disks) can stall briefly without the underlying error being
// permanent, so a handful of Fibonacci-spaced retries is worth the delay
// before the error is returned to the caller.
const (
	retryAttempts = 5
	retryBase     = 1 * time.Second
)

// Retry executes task with Fibonacci backoff up to retryAttempts retries.
// go-retry only retries an error wrapped in retry.RetryableError; any
// other error is treated as terminal after a single attempt. Retry
// applies that gate itself by consulting ShouldRetry, so callers (see
// blockio.DirectIO) just return the error task produced and don't need to
// know about go-retry's wrapping convention. If the task still fails
// (retries exhausted, or a non-retryable error on any attempt), gaveUpTask
// is invoked (when not nil) and the final error is returned.
func Retry(ctx context.Context, task func(ctx context.Context) error, gaveUpTask func(ctx context.Context)) error {
	b := retry.NewFibonacci(retryBase)
	gated := func(ctx context.Context) error {
		err := task(ctx)
		if err == nil || !ShouldRetry(err) {
			return err
		}
		return retry.RetryableError(err)
	}
	if err := retry.Do(ctx, retry.WithMaxRetries(retryAttempts, b), gated); err != nil {
		log.Warn("bitrepair: retry exhausted, giving up", "error", err)
		if gaveUpTask != nil {
			gaveUpTask(ctx)
		}
		return err
	}
	return nil
}

// nonRetryableErrs are OS-level conditions that retrying can never fix:
// the operation will fail identically on every attempt, so backing off
// and trying again just delays reporting the block as failed.
var nonRetryableErrs = []error{
	os.ErrNotExist, os.ErrPermission, os.ErrClosed, os.ErrExist,
	syscall.EROFS,  // read-only filesystem
	syscall.ENOSPC, // no space left on device
	syscall.EDQUOT, // disk quota exceeded
	syscall.EMFILE, // too many open files (per-process)
	syscall.ENFILE, // too many open files (system-wide)
	syscall.EACCES, // permission denied
	syscall.EPERM,  // operation not permitted
	syscall.ENAMETOOLONG,
	syscall.ENOTDIR,
	syscall.EISDIR,
	syscall.ENOTEMPTY,
	syscall.EMLINK,
	syscall.ELOOP,
	syscall.EXDEV,  // invalid cross-device link
	syscall.EEXIST, // file exists
	syscall.EINVAL, // invalid argument (typically a caller bug, not a transient fault)
}

// ShouldRetry reports whether err is worth another attempt: non-nil, not a
// context cancellation/deadline (permanent from the caller's POV), and
// not one of the permanent OS-level failures in nonRetryableErrs. Gates
// Retry's backoff loop; see Retry.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	for _, permanent := range nonRetryableErrs {
		if errors.Is(err, permanent) {
			return false
		}
	}
	// Some platforms/drivers surface EROFS only in the error text.
	if strings.Contains(err.Error(), "read-only file system") {
		return false
	}
	return true
}
