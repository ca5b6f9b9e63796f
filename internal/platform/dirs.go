package platform

import (
	"fmt"
	"os"
)

// SharedDirPerm is the mode of directories bind-mounted into containers
// that run as a different user.
const SharedDirPerm os.FileMode = 0o777

// EnsureDirs creates each directory (and missing parents) with
// SharedDirPerm. The process umask is cleared for the duration of the
// call and restored before returning, so the requested mode is applied
// exactly. Existing directories are left alone.
func EnsureDirs(dirs ...string) error {
	restore := clearUmask()
	defer restore()

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, SharedDirPerm); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
