//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another simulator process is found.
var ErrAlreadyRunning = errors.New("another instance is already running")

// ProcessLister enumerates running processes.
type ProcessLister func() ([]ps.Process, error)

// FindRunningInstances returns the PIDs of other processes whose executable
// name equals executable. The current process is never included.
func FindRunningInstances(list ProcessLister, executable string) ([]int, error) {
	if list == nil {
		list = ps.Processes
	}

	processList, err := list()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()
	result := make([]int, 0, 1)

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !sameExecutable(process.Executable(), executable) {
			continue
		}

		result = append(result, process.Pid())
	}

	return result, nil
}

// EnsureSingleInstance fails with ErrAlreadyRunning when FindRunningInstances
// reports anything.
func EnsureSingleInstance(list ProcessLister, executable string) error {
	pids, err := FindRunningInstances(list, executable)
	if err != nil {
		return err
	}

	if len(pids) > 0 {
		return fmt.Errorf("%w: pid %v", ErrAlreadyRunning, pids)
	}

	return nil
}

// CurrentExecutable returns the base name of the running binary.
func CurrentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}

	return filepath.Base(path)
}

func sameExecutable(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(strings.TrimSuffix(a, ".exe"), strings.TrimSuffix(b, ".exe"))
	}

	return a == b
}
