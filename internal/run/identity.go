package run

import (
	"fmt"
	"os"
)

// IdentityProvider supplies the identity the containerized process should run
// as, so files written to the bound output directory end up owned by the
// invoking user rather than the container's default user.
type IdentityProvider interface {
	// Identity returns a "uid:gid" string and true, or false when the host
	// platform exposes no POSIX identity.
	Identity() (string, bool)
}

// HostIdentity reads the effective user and group of the invoking process.
type HostIdentity struct{}

// Identity implements IdentityProvider. On platforms without POSIX ids
// (os.Getuid reports -1) no identity is returned and the engine default
// applies.
func (HostIdentity) Identity() (string, bool) {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return "", false
	}
	return fmt.Sprintf("%d:%d", uid, gid), true
}

// Verify HostIdentity implements IdentityProvider
var _ IdentityProvider = HostIdentity{}
