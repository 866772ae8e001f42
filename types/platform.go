package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Platform selects the code-emission policy for a build.
// It is resolved once at the CLI edge and injected everywhere else,
// so pipeline code never inspects the host directly.
type Platform string

const (
	// PlatformLinux emits gcc-flavored assembly.
	PlatformLinux Platform = "linux"
	// PlatformDarwin emits gcc-darwin-flavored assembly.
	PlatformDarwin Platform = "darwin"
	// PlatformWindows has no assembly flavor; the emitter writes a native object file.
	PlatformWindows Platform = "windows"
	// PlatformOtherUnix covers every other Unix-like host and emits gcc-flavored assembly.
	PlatformOtherUnix Platform = "other-unix"
)

// AssemblyFlavor is the value passed to the code emitter's --assembly flag.
// The zero value means no flavor: the emitter produces an object file.
type AssemblyFlavor string

const (
	FlavorNone      AssemblyFlavor = ""
	FlavorGCC       AssemblyFlavor = "gcc"
	FlavorGCCDarwin AssemblyFlavor = "gcc-darwin"
)

// Compiler modes understood by the resource compiler's --mode flag.
const (
	CompilerModeUnix    = "unix-exec"
	CompilerModeWindows = "windows-exec"
)

// DetectPlatform maps a GOOS value onto a Platform.
func DetectPlatform(goos string) Platform {
	switch goos {
	case "linux":
		return PlatformLinux
	case "darwin", "ios":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformOtherUnix
	}
}

// ParsePlatform parses a platform name as accepted by --platform.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformLinux:
		return PlatformLinux, nil
	case PlatformDarwin:
		return PlatformDarwin, nil
	case PlatformWindows:
		return PlatformWindows, nil
	case PlatformOtherUnix:
		return PlatformOtherUnix, nil
	default:
		return "", fmt.Errorf("unknown platform %q (valid: linux, darwin, windows, other-unix)", s)
	}
}

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	_, err := ParsePlatform(string(p))
	return err == nil
}

// AssemblyFlavor returns the assembly flavor for p.
func (p Platform) AssemblyFlavor() AssemblyFlavor {
	switch p {
	case PlatformDarwin:
		return FlavorGCCDarwin
	case PlatformWindows:
		return FlavorNone
	default:
		return FlavorGCC
	}
}

// CompilerMode returns the resource compiler execution mode for p.
func (p Platform) CompilerMode() string {
	if p == PlatformWindows {
		return CompilerModeWindows
	}
	return CompilerModeUnix
}

// ExecutableSuffix returns the file suffix of tool executables on p.
func (p Platform) ExecutableSuffix() string {
	if p == PlatformWindows {
		return ".exe"
	}
	return ""
}

// ArtifactExt returns the extension of the generated code artifact for a flavor.
func (f AssemblyFlavor) ArtifactExt() string {
	if f == FlavorNone {
		return ".obj"
	}
	return ".S"
}

// ArtifactName returns the generated code file name for an archive.
// The archive's extension is stripped and "_dat" appended:
// icudt79l.dat becomes icudt79l_dat.S (or icudt79l_dat.obj).
func ArtifactName(archivePath string, flavor AssemblyFlavor) string {
	base := filepath.Base(archivePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "_dat" + flavor.ArtifactExt()
}
