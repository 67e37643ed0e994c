package config

// ValidPlatforms lists the platform names shaderc accepts.
var ValidPlatforms = []string{"android", "asm.js", "ios", "linux", "orbis", "osx", "windows"}

// IsKnownPlatform reports whether p is one of ValidPlatforms.
func IsKnownPlatform(p string) bool {
	for _, v := range ValidPlatforms {
		if v == p {
			return true
		}
	}
	return false
}

// PlatformFor maps a GOOS value to the shaderc platform name.
func PlatformFor(goos string) string {
	switch goos {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	case "android":
		return "android"
	case "ios":
		return "ios"
	case "js":
		return "asm.js"
	default:
		return "linux"
	}
}

// executableSuffix is appended to the compiler binary on Windows hosts.
func executableSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
