//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/google/uuid"
)

// Identity describes the host and user running the simulator.
type Identity struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the account running the process.
	Username string
	// RunID is unique per process start.
	RunID string
}

// DetectIdentity gathers host and user information.
func DetectIdentity() (*Identity, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Identity{
		Hostname: hostname,
		Username: currentUser.Username,
		RunID:    uuid.NewString(),
	}, nil
}

// ClientID derives a broker client identifier that is unique per run.
func (i *Identity) ClientID(prefix string) string {
	return prefix + "-" + sanitize(i.Hostname) + "-" + shortRunID(i.RunID)
}

// InstanceName derives a human-readable service instance name.
func (i *Identity) InstanceName(prefix string) string {
	return prefix + " on " + i.Hostname
}

func shortRunID(id string) string {
	const size = 8

	id = strings.ReplaceAll(id, "-", "")
	if len(id) > size {
		return id[:size]
	}

	return id
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
