// Package buildinfo carries build metadata stamped via -ldflags, e.g.
//
//	go build -ldflags "-X ember/internal/buildinfo.Version=v0.3.0"
package buildinfo

var (
	// Version is the release tag, or "dev" for untagged builds.
	Version = "dev"
	// Commit is the short VCS revision.
	Commit = "unknown"
	// Date is the build timestamp.
	Date = "unknown"
)

// Short returns a compact build identifier for logging: the release tag
// when one was stamped, otherwise the commit, otherwise a dev marker with
// the build date when known.
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "" && Commit != "unknown":
		return Commit
	case Date != "" && Date != "unknown":
		return "dev@" + Date
	}
	return "dev"
}
