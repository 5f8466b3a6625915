//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"
)

// Actor identifies who ran a promotion.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the OS account name.
	Username string
}

// DetectActor gathers host and user information for the index audit trail.
func DetectActor() (Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Actor{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Actor{}, fmt.Errorf("current user: %w", err)
	}

	return Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// String renders the actor as user@host.
func (a Actor) String() string {
	if a.Username == "" && a.Hostname == "" {
		return ""
	}

	return a.Username + "@" + a.Hostname
}
