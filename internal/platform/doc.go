// Package platform isolates the host-specific parts of a bootstrap run:
// Windows detection, the user id exported to containers, python executable
// names, and directory creation under a temporarily cleared umask.
package platform
