package config

import "strings"

// Version is the tapec release string. Can be set at build time using:
// -ldflags "-X github.com/funvibe/tapec/internal/config.Version=..."
var Version = "0.3.0"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".bf", ".b"}

// BundleExt is the extension of compiled compressed programs
const BundleExt = ".tpc"

// ConfigFileName is looked up in the working directory when no path is given
const ConfigFileName = "tapec.yaml"

// ConfigEnvVar names the environment variable holding a config path
const ConfigEnvVar = "TAPEC_CONFIG"

// Dialect names
const (
	DialectBasic      = "basic"
	DialectCompressed = "compressed"
)

// DefaultDialect selects the interpreter when neither tapec.yaml nor a flag
// does. Can be set at build time using:
// -ldflags "-X github.com/funvibe/tapec/internal/config.DefaultDialect=basic"
var DefaultDialect = DialectCompressed

// Defaults applied when neither the config file nor a flag sets a value
const (
	DefaultTapeSize      = 30000
	DefaultServerAddr    = "127.0.0.1:7411"
	DefaultMaxConcurrent = 8
	DefaultHistoryFile   = "tapec.db"

	// Per-request limits of the execution service
	DefaultMaxInstructions = 500_000_000
	DefaultMaxOutput       = 1 << 20
)

// IsSourceFile checks if a file has a recognized source extension
func IsSourceFile(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt strips a recognized source extension from path
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
