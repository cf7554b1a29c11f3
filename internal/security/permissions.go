// internal/security/permissions.go

// Package security holds the permission checks and input sanitization
// applied to rule files and externally supplied phrases.
package security

import (
	"fmt"
	"os"
)

// ValidateDirectoryPermissions checks that a directory is not writable
// by anyone but its owner (and optionally its group). Rule definitions
// feed the parser, so a world-writable rules directory would let any
// local user inject phrases.
func ValidateDirectoryPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking directory permissions: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	mode := info.Mode().Perm()
	if mode&0002 != 0 {
		return fmt.Errorf("directory %s is world-writable (mode %04o), expected 0700 or 0750", path, mode)
	}
	if mode&0077 > 0050 {
		return fmt.Errorf("directory %s has overly permissive mode %04o, expected 0700 or 0750", path, mode)
	}

	return nil
}

// ValidateFilePermissions checks that a file is not world-writable.
func ValidateFilePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	mode := info.Mode().Perm()
	if mode&0002 != 0 {
		return fmt.Errorf("file %s is world-writable (mode %04o)", path, mode)
	}

	return nil
}
