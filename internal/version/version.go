package version

// version is the version of the generator.
//
// This value is expected to be set via build-time injection:
//
//	go build -ldflags "-X github.com/blorente/sonic-buildimage/internal/version.version=..."
var version string

// Version returns the version of the generator, "dev" when not injected.
func Version() string {
	if version == "" {
		return "dev"
	}
	return version
}
