package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"recipebox/internal/services"
)

const checkTimeout = 30 * time.Second

// CheckAnalysis verifies that the analysis endpoint answers. A missing key is
// reported in the detail but does not fail the check; some endpoints accept
// anonymous requests.
func CheckAnalysis(ctx context.Context, client HealthChecker, hasKey bool) Result {
	const name = "Analysis API"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := client.HealthCheck(checkCtx); err != nil {
		detail := summarizeError(err)
		if !hasKey {
			detail += " (no api key set)"
		}
		return Result{Name: name, Detail: detail}
	}
	if !hasKey {
		return Result{Name: name, Passed: true, Detail: "reachable without api key"}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckBackend calls the recipe backend auth endpoint. A rejected or missing
// session still proves the backend is reachable.
func CheckBackend(ctx context.Context, client UserProber) Result {
	const name = "Recipe backend"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	user, err := client.CurrentUser(checkCtx)
	switch {
	case err == nil:
		label := user.Name
		if label == "" {
			label = user.ID
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("signed in as %s (%s)", label, user.Role)}
	case errors.Is(err, services.ErrValidation):
		return Result{Name: name, Passed: true, Detail: "reachable, not signed in"}
	default:
		return Result{Name: name, Detail: summarizeError(err)}
	}
}

// CheckImages verifies the S3 bucket used for recipe photos.
func CheckImages(ctx context.Context, store BucketChecker) Result {
	const name = "Image storage"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := store.CheckBucket(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bucket %s reachable", store.Bucket())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable and writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckServer reports whether a `recipebox serve` instance holds the lock.
// Both outcomes pass; the detail tells the user which commands reach it.
func CheckServer(lockPath, bind string) Result {
	const name = "Server"

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("lock check failed (%v)", err)}
	}
	if locked {
		_ = lock.Unlock()
		return Result{Name: name, Passed: true, Detail: "not running"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("running on %s", bind)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, services.ErrTimeout) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	if msg := services.UserMessage(err); msg != "" {
		return msg
	}
	return err.Error()
}
