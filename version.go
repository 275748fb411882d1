package interact

import (
	"runtime/debug"
)

const (
	modulePath     = "github.com/telcoshop/interact-go-client"
	userAgentName  = "interact-go-client"
	unknownVersion = "unknown"
)

// getUserAgent returns "interact-go-client/<version>", with "unknown" as the
// version when the build carries none (tests, local builds).
func getUserAgent() string {
	return userAgentName + "/" + moduleVersion()
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return unknownVersion
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath && dep.Version != "" {
			return dep.Version
		}
	}
	if v := info.Main.Version; info.Main.Path == modulePath && v != "" && v != "(devel)" {
		return v
	}
	return unknownVersion
}
