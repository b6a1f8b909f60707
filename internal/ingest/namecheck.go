package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
)

// NameSafetyChecker rejects filenames that smell like executables, scripts or
// filesystem abuse. Rules run in a fixed order and the first violation wins.
type NameSafetyChecker struct {
	dangerousExtensions map[string]bool
	suspiciousPatterns  []*regexp.Regexp
	maxNameLength       int
}

// The deny-list intentionally includes "js": legitimate JavaScript sources are
// blocked as a side effect. Accepted over-restriction, do not relax it here.
var dangerousExtensionList = []string{
	"exe", "bat", "cmd", "com", "pif", "scr", "vbs", "js", "jar",
	"app", "deb", "pkg", "rpm", "dmg", "iso", "msi", "run",
}

var suspiciousPatternList = []*regexp.Regexp{
	regexp.MustCompile(`[<>:"|?*]`),                                 // invalid filename characters
	regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[1-9]|lpt[1-9])$`), // reserved Windows device names
	regexp.MustCompile(`(?i)\.(php|asp|jsp|py|pl|rb|sh|bat|cmd)$`),  // server-side script extensions
}

func NewNameSafetyChecker() *NameSafetyChecker {
	dangerous := make(map[string]bool, len(dangerousExtensionList))
	for _, ext := range dangerousExtensionList {
		dangerous[ext] = true
	}
	return &NameSafetyChecker{
		dangerousExtensions: dangerous,
		suspiciousPatterns:  suspiciousPatternList,
		maxNameLength:       255,
	}
}

// Check returns nil when the filename is acceptable, otherwise the first
// violated rule.
func (c *NameSafetyChecker) Check(filename string) *ValidationError {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if c.dangerousExtensions[ext] {
		err := newError(CodeDangerousExtension,
			"file extension %q is not allowed for security reasons", ext)
		return &err
	}

	for _, pattern := range c.suspiciousPatterns {
		if pattern.MatchString(filename) {
			err := newError(CodeSuspiciousFilename,
				"filename contains invalid or suspicious characters")
			return &err
		}
	}

	if len(filename) > c.maxNameLength {
		err := newError(CodeFilenameTooLong,
			"filename is too long (maximum %d characters)", c.maxNameLength)
		return &err
	}

	return nil
}
