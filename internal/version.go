package internal

// CurrentVersion is overwritten by ldflags during release builds.
var CurrentVersion = "v0.1.0"

// UserAgent identifies this client on every request.
func UserAgent() string {
	return "logsh/" + CurrentVersion
}
