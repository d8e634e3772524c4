package torproc

// Version is the current version of the torproc library
const Version = "0.1.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// LogFormat identifies the router log layout the classifier expects
	LogFormat string
	// TimestampLen is the fixed timestamp width the classifier splits on
	TimestampLen int
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:      Version,
		LogFormat:    "tor-stdout",
		TimestampLen: TimestampLen,
	}
}
