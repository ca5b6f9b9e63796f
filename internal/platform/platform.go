package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// WindowsUID is exported as the container user id on Windows, where the
// host has no numeric uid. It matches the default airflow image user.
const WindowsUID = "50000"

// Host describes the machine the CLI runs on. Tests construct it directly
// to simulate other platforms.
type Host struct {
	// GOOS is the operating system, as in runtime.GOOS.
	GOOS string

	// Getuid returns the numeric user id. Only consulted off Windows.
	Getuid func() int
}

// Current returns the Host for the running process.
func Current() Host {
	return Host{GOOS: runtime.GOOS, Getuid: os.Getuid}
}

// IsWindows reports whether the host belongs to the Windows family.
func (h Host) IsWindows() bool {
	return IsWindows(h.GOOS)
}

// IsWindows reports whether goos names the Windows family.
func IsWindows(goos string) bool {
	return goos == "windows"
}

// UserID returns the value for the container user id variable: the
// placeholder on Windows, the numeric uid of the current user otherwise.
// An empty placeholder falls back to WindowsUID.
func (h Host) UserID(placeholder string) string {
	if h.IsWindows() {
		if placeholder == "" {
			return WindowsUID
		}
		return placeholder
	}
	getuid := h.Getuid
	if getuid == nil {
		getuid = os.Getuid
	}
	return strconv.Itoa(getuid())
}

// Python returns the name of the global python interpreter.
func (h Host) Python() string {
	if h.IsWindows() {
		return "python.exe"
	}
	return "python3"
}

// VenvPython returns the path of the interpreter inside the virtual
// environment rooted at venvDir.
func (h Host) VenvPython(venvDir string) string {
	if h.IsWindows() {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python3")
}
