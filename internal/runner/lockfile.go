package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/gradually/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrAlreadyRunning is returned when another live runner holds the lockfile
var ErrAlreadyRunning = errors.New("another runner is already running")

// Lock is a held runner lockfile
type Lock struct {
	path string
	pid  int
}

// AcquireLock creates <dir>/gradually-runner.lock holding this process's PID.
// A lockfile left behind by a process that is no longer alive, or whose PID
// now belongs to something other than gradually, is replaced.
func AcquireLock(dir string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	path := filepath.Join(dir, constants.RunnerLockfileName)
	pid := getpidFunc()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d|%s", pid, time.Now().UTC().Format(time.RFC3339))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, pid: pid}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		holder, alive := lockHolder(path)
		if alive {
			return nil, fmt.Errorf("%w (pid %d, lockfile %s)", ErrAlreadyRunning, holder, path)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return nil, fmt.Errorf("%w (lockfile %s is contended)", ErrAlreadyRunning, path)
}

// lockHolder reads the PID in the lockfile and reports whether it still
// belongs to a running gradually process.
func lockHolder(path string) (int, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	return pid, strings.HasPrefix(process.Executable(), constants.AppName)
}

// Path returns the lockfile path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lockfile if this process still owns it.
func (l *Lock) Release() error {
	content, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if parts[0] != strconv.Itoa(l.pid) {
		return nil
	}
	return os.Remove(l.path)
}
