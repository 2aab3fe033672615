package beacon

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/mod/semver"
)

// Version is the SDK version reported in the $lib_version property.
const Version = "0.4.0"

// libName is the SDK identity reported in the $lib property.
const libName = "beacon-go"

// Property keys attached by enrichment.
const (
	propLib             = "$lib"
	propLibVersion      = "$lib_version"
	propLibVersionMajor = "$lib_version_major"
	propLibVersionMinor = "$lib_version_minor"
	propLibVersionPatch = "$lib_version_patch"
	propOS              = "$os"
	propOSVersion       = "$os_version"
	propOSArch          = "$os_arch"
)

// libContext holds the process-wide facts attached to every event.
// Computed once; OS release lookup hits the filesystem.
type libContext struct {
	versionMajor int
	versionMinor int
	versionPatch int
	osName       string
	osVersion    string
	osArch       string
}

var loadLibContext = sync.OnceValue(func() libContext {
	major, minor, patch := versionParts(Version)
	return libContext{
		versionMajor: major,
		versionMinor: minor,
		versionPatch: patch,
		osName:       runtime.GOOS,
		osVersion:    osVersion(),
		osArch:       runtime.GOARCH,
	}
})

// enrichEvent attaches library and OS metadata to the event. Existing keys
// are never overwritten: explicit caller values win over enrichment defaults.
// Runs exactly once per event, on the worker, before any hook.
func enrichEvent(evt *Event) {
	if evt.Properties == nil {
		evt.Properties = make(map[string]any)
	}

	lc := loadLibContext()

	orInsert(evt.Properties, propLib, libName)
	orInsert(evt.Properties, propLibVersion, Version)
	orInsert(evt.Properties, propLibVersionMajor, lc.versionMajor)
	orInsert(evt.Properties, propLibVersionMinor, lc.versionMinor)
	orInsert(evt.Properties, propLibVersionPatch, lc.versionPatch)
	orInsert(evt.Properties, propOS, lc.osName)
	orInsert(evt.Properties, propOSVersion, lc.osVersion)
	orInsert(evt.Properties, propOSArch, lc.osArch)
}

// orInsert sets key to value only when the key is absent.
func orInsert(props map[string]any, key string, value any) {
	if _, exists := props[key]; !exists {
		props[key] = value
	}
}

// versionParts splits a semver string into numeric components. Prerelease
// and build suffixes are ignored; an invalid version yields zeros.
func versionParts(version string) (major, minor, patch int) {
	v := semver.Canonical("v" + version)
	if !semver.IsValid(v) {
		return 0, 0, 0
	}
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}

	parts := strings.SplitN(strings.TrimPrefix(v, "v"), ".", 3)
	major, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		patch, _ = strconv.Atoi(parts[2])
	}
	return major, minor, patch
}

// osVersion returns a best-effort OS release identifier. On Linux it reads
// VERSION_ID from /etc/os-release; elsewhere (or on failure) it reports
// "unknown" rather than guessing.
func osVersion() string {
	if runtime.GOOS != "linux" {
		return "unknown"
	}
	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		return "unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, found := strings.CutPrefix(line, "VERSION_ID="); found {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return "unknown"
}
