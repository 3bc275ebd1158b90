// Package config provides session configuration for the isolate coordinator.
//
// Configuration controls:
//   - Debug options: whether breakpoints and stepping are active at all, and
//     whether SDK/platform and external package libraries are debuggable
//   - The initial exception pause mode
//   - Workspace roots, used to classify package libraries as external
//
// Options are held in an explicit object rather than ambient flags; applying
// a change at runtime goes through Coordinator.ApplyDebugOptions.
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/jnschulze/isodap/pkg/types"
)

// DebugOptions is the debugging-related half of the session configuration.
type DebugOptions struct {
	// Debug enables debugging. When false no library is debuggable and
	// breakpoints never attach.
	Debug bool `json:"debug"`

	// DebugSDKLibraries makes platform/SDK libraries debuggable.
	DebugSDKLibraries bool `json:"debugSdkLibraries"`

	// DebugExternalPackageLibraries makes package libraries that resolve
	// outside the workspace roots debuggable.
	DebugExternalPackageLibraries bool `json:"debugExternalPackageLibraries"`
}

// Config holds the full session configuration.
type Config struct {
	DebugOptions DebugOptions `json:"debugOptions"`

	// ExceptionPauseMode is the mode applied to isolates until the client
	// chooses another one.
	ExceptionPauseMode types.ExceptionPauseMode `json:"exceptionPauseMode"`

	// WorkspaceRoots are local source roots; package libraries resolving
	// outside all of them count as external.
	WorkspaceRoots []string `json:"workspaceRoots,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults: debugging
// on, SDK and external package libraries not debuggable, pause on unhandled
// exceptions.
func DefaultConfig() *Config {
	return &Config{
		DebugOptions: DebugOptions{
			Debug: true,
		},
		ExceptionPauseMode: types.ExceptionPauseUnhandled,
	}
}

// LoadConfig loads configuration from a JSON file, applying defaults for
// anything the file omits. An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsSDKLibrary reports whether a library URI denotes a platform/SDK library
// rather than user or package code.
func IsSDKLibrary(uri string) bool {
	if uri == "" {
		return false
	}
	if strings.HasPrefix(uri, "file:") || strings.HasPrefix(uri, "package:") {
		return false
	}
	// Anything else with a scheme ("dart:core", "org-dartlang-sdk:///...")
	// belongs to the platform.
	return strings.Contains(uri, ":")
}

// LibraryFilter returns the verdict function deciding whether a library,
// identified by its resolved URI, should be debuggable under these options.
func (c *Config) LibraryFilter() func(resolvedURI string) bool {
	opts := c.DebugOptions
	roots := append([]string(nil), c.WorkspaceRoots...)
	return func(resolvedURI string) bool {
		if !opts.Debug {
			return false
		}
		if IsSDKLibrary(resolvedURI) {
			return opts.DebugSDKLibraries
		}
		if len(roots) > 0 && !underAnyRoot(resolvedURI, roots) {
			return opts.DebugExternalPackageLibraries
		}
		return true
	}
}

func underAnyRoot(uri string, roots []string) bool {
	path := strings.TrimPrefix(uri, "file://")
	for _, root := range roots {
		if root == "" {
			continue
		}
		if path == root || strings.HasPrefix(path, strings.TrimSuffix(root, "/")+"/") {
			return true
		}
	}
	return false
}
