// Package version tracks the daemon version and the installed companion
// application build.
package version

import (
	"os"
	"strconv"
	"strings"
)

// Version is the companiond daemon version.
const Version = "0.3.0"

// APIVersion is the REST API version served by the daemon.
const APIVersion = "1.0"

// UnknownVersionCode is the sentinel for an unobtainable installed version.
// Any real manifest version code exceeds it, so comparison logic treats an
// unknown install as "always offer update".
const UnknownVersionCode int64 = -1

// InstalledVersionCode reads the version code recorded for the currently
// installed application build from the given file. It returns
// UnknownVersionCode when the file is missing or unparseable.
func InstalledVersionCode(path string) int64 {
	body, err := os.ReadFile(path)
	if err != nil {
		return UnknownVersionCode
	}

	code, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil || code < 0 {
		return UnknownVersionCode
	}

	return code
}

// RecordInstalledVersionCode writes the version code of a freshly installed
// build to the given file.
func RecordInstalledVersionCode(path string, code int64) error {
	return os.WriteFile(path, []byte(strconv.FormatInt(code, 10)+"\n"), 0o600)
}
