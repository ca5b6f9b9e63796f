//go:build !unix

package platform

// clearUmask is a no-op on platforms without a umask.
func clearUmask() func() {
	return func() {}
}
