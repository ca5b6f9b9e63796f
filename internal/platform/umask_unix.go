//go:build unix

package platform

import "golang.org/x/sys/unix"

// clearUmask sets the umask to zero and returns a func restoring the
// previous mask.
func clearUmask() func() {
	old := unix.Umask(0)
	return func() { unix.Umask(old) }
}
