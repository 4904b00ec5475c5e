// Package validation provides pre-install checks for install directories
// and plans.
package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauern/modsync/internal/model"
	"github.com/klauern/modsync/internal/plan"
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the field or component that failed validation
	Field string
	// Message describes the validation failure
	Message string
	// Err is the underlying error (if any)
	Err error
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	if ve.Err != nil {
		return fmt.Sprintf("validation failed for %q: %s: %v", ve.Field, ve.Message, ve.Err)
	}
	return fmt.Sprintf("validation failed for %q: %s", ve.Field, ve.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (ve *Error) Unwrap() error {
	return ve.Err
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// Result contains the outcome of a validation check.
type Result struct {
	// Valid indicates whether all validations passed
	Valid bool
	// Warnings contains non-fatal validation issues
	Warnings []string
	// Errors contains validation failures that prevent the install
	Errors []error
}

// AddError adds an error to the validation result.
func (r *Result) AddError(err error) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning adds a warning to the validation result.
func (r *Result) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error returns the combined validation error.
func (r *Result) Error() error {
	if !r.HasErrors() {
		return nil
	}
	if len(r.Errors) == 1 {
		return r.Errors[0]
	}
	return Errors(r.Errors)
}

// Summary returns a human-readable summary of the validation result.
func (r *Result) Summary() string {
	if r.Valid && len(r.Warnings) == 0 {
		return "All validations passed"
	}
	var msg string
	if r.Valid {
		msg = "Validation passed with warnings"
	} else {
		msg = "Validation failed"
	}
	if len(r.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warning(s))", len(r.Warnings))
	}
	return msg
}

// ValidateInstall checks that installDir can receive sub. A missing game
// data directory is only a warning since some games keep it elsewhere.
func ValidateInstall(installDir string, sub model.SubMod) *Result {
	result := &Result{Valid: true}

	if err := ValidateInstallDir(installDir); err != nil {
		result.AddError(err)
		return result
	}
	if err := validateWritePermission(installDir); err != nil {
		result.AddError(err)
	}

	if sub.DataName != "" {
		info, err := os.Stat(filepath.Join(installDir, sub.DataName))
		if err != nil || !info.IsDir() {
			result.AddWarning(fmt.Sprintf("%s not found in %s; is this the %s install folder?", sub.DataName, installDir, sub.Target))
		}
	}
	return result
}

// ValidateInstallDir checks that path is an existing directory.
func ValidateInstallDir(path string) error {
	if path == "" {
		return &Error{
			Field:   "install dir",
			Message: "path cannot be empty",
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return &Error{
			Field:   "install dir",
			Message: "cannot convert to absolute path",
			Err:     err,
		}
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Error{
				Field:   "install dir",
				Message: fmt.Sprintf("path does not exist: %s", absPath),
				Err:     err,
			}
		}
		return &Error{
			Field:   "install dir",
			Message: fmt.Sprintf("cannot access path: %s", absPath),
			Err:     err,
		}
	}

	if !info.IsDir() {
		return &Error{
			Field:   "install dir",
			Message: fmt.Sprintf("path is not a directory: %s", absPath),
		}
	}
	return nil
}

// validateWritePermission checks if dir is writable.
func validateWritePermission(dir string) error {
	testFile := filepath.Join(dir, ".modsync-write-test")
	// #nosec G304 - testFile is constructed from validated path
	f, err := os.Create(testFile)
	if err != nil {
		return &Error{
			Field:   "write permission",
			Message: fmt.Sprintf("install directory is not writable: %s", dir),
			Err:     err,
		}
	}
	_ = f.Close()
	_ = os.Remove(testFile)
	return nil
}

// ValidatePlan rejects entries whose extraction directory would land outside
// the install directory.
func ValidatePlan(p plan.Plan) error {
	var errs Errors
	for i, e := range p.Entries {
		if e.ExtractionDir == "" {
			continue
		}
		if filepath.IsAbs(e.ExtractionDir) || escapes(e.ExtractionDir) {
			errs = append(errs, &Error{
				Field:   fmt.Sprintf("entries[%d].extraction_dir", i),
				Message: fmt.Sprintf("%s extracts outside the install directory: %q", e.ID, e.ExtractionDir),
			})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func escapes(rel string) bool {
	clean := filepath.ToSlash(filepath.Clean(rel))
	return clean == ".." || strings.HasPrefix(clean, "../")
}
