// Package version exposes build identification, overridable with -ldflags -X.
package version

//nolint:gochecknoglobals // set at link time
var (
	name    = "cambium"
	version = "dev"
	commit  = "unknown"
)

// Name of the program.
func Name() string {
	return name
}

// Version of the build.
func Version() string {
	return version
}

// Commit the build was made from.
func Commit() string {
	return commit
}
