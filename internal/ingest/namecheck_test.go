package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameSafetyCheckerAcceptsNormalNames(t *testing.T) {
	c := NewNameSafetyChecker()
	for _, name := range []string{
		"pasture-rotation.pdf",
		"Feeding Schedule 2026.docx",
		"calving_video.mp4",
		"фермерство.txt", // non-ASCII is fine
	} {
		assert.Nil(t, c.Check(name), name)
	}
}

func TestNameSafetyCheckerDangerousExtensions(t *testing.T) {
	c := NewNameSafetyChecker()
	for _, name := range []string{"installer.exe", "setup.MSI", "tool.jar", "widget.js"} {
		err := c.Check(name)
		require.NotNil(t, err, name)
		assert.Equal(t, CodeDangerousExtension, err.Code, name)
	}
}

func TestNameSafetyCheckerSuspiciousPatterns(t *testing.T) {
	c := NewNameSafetyChecker()

	cases := map[string]string{
		`report<final>.pdf`: "invalid characters",
		"CON":               "reserved device name",
		"backdoor.php":      "server-side script",
		"upload.sh":         "server-side script",
	}
	for name := range cases {
		err := c.Check(name)
		require.NotNil(t, err, name)
		assert.Equal(t, CodeSuspiciousFilename, err.Code, name)
	}
}

func TestNameSafetyCheckerLengthLimit(t *testing.T) {
	c := NewNameSafetyChecker()

	ok := strings.Repeat("a", 251) + ".txt" // exactly 255
	assert.Nil(t, c.Check(ok))

	long := strings.Repeat("a", 252) + ".txt"
	err := c.Check(long)
	require.NotNil(t, err)
	assert.Equal(t, CodeFilenameTooLong, err.Code)
}

func TestNameSafetyCheckerFirstViolationWins(t *testing.T) {
	c := NewNameSafetyChecker()
	// Dangerous extension and an invalid character: extension rule runs first.
	err := c.Check("bad|name.exe")
	require.NotNil(t, err)
	assert.Equal(t, CodeDangerousExtension, err.Code)
}
