package contracts

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, DataFormatVersion, info.DataFormat)
	assert.NotEmpty(t, info.GitCommit)
}

func TestGetVersionInfo_LDFlagsWin(t *testing.T) {
	saved := GitCommit
	defer func() { GitCommit = saved }()

	GitCommit = "abc123"
	assert.Equal(t, "abc123", GetVersionInfo().GitCommit)
}

func TestVersionStrings(t *testing.T) {
	assert.Equal(t, "ewscli v"+Version, GetVersionString())

	full := GetFullVersionString()
	assert.Contains(t, full, GetVersionString())
	assert.Contains(t, full, "data format "+DataFormatVersion)
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
}
