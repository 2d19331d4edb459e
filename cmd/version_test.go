package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCommandOutput(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()
	rootCmd.Version = "1.2.3-test"

	versionCmd := newVersionCmd()

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "area version 1.2.3-test\n", buf.String())
}

func TestSelfUpdateRejectsDevVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	for _, v := range []string{"", "dev"} {
		rootCmd.Version = v
		err := runSelfUpdate(newSelfUpdateCmd(), nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "development version")
	}
}
