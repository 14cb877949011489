package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)

	str := info.String()
	assert.Contains(t, str, "dsformat dataset formatter")
	assert.Contains(t, str, "Version:")
	assert.Contains(t, str, "Go Version:")
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.0.0",
		BuildDate: "2024-01-01T00:00:00Z",
		GitCommit: "abc123def456",
		GoVersion: "go1.24.4",
	}

	str := info.String()
	assert.Contains(t, str, "Version: v1.0.0\n")
	assert.Contains(t, str, "Build Date: 2024-01-01T00:00:00Z")
	assert.Contains(t, str, "Git Commit: abc123d")
	assert.Contains(t, str, "Go Version: go1.24.4")
	assert.NotContains(t, str, "Module:")
}

func TestBuildInfoStringDirty(t *testing.T) {
	info := BuildInfo{Version: "v1.0.0", GitCommit: "abc123-dirty", Dirty: true, BuildDate: unknownValue}

	str := info.String()
	assert.Contains(t, str, "Version: v1.0.0 (dirty)")
	assert.NotContains(t, str, "Build Date")
}

func TestIsRelease(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"v1.2.3", true},
		{"v1.2.3-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}
