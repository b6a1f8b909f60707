package ingest

import "fmt"

// ErrorCode identifies a validation or upload failure. Codes are part of the
// API contract — clients switch on them, so the set is closed.
type ErrorCode string

const (
	CodeInvalidType        ErrorCode = "INVALID_TYPE"
	CodeExtensionMismatch  ErrorCode = "EXTENSION_MISMATCH"
	CodeSizeExceeded       ErrorCode = "SIZE_EXCEEDED"
	CodeDangerousExtension ErrorCode = "DANGEROUS_EXTENSION"
	CodeSuspiciousFilename ErrorCode = "SUSPICIOUS_FILENAME"
	CodeFilenameTooLong    ErrorCode = "FILENAME_TOO_LONG"
	CodeSecurityThreat     ErrorCode = "SECURITY_THREAT"
	CodeValidationError    ErrorCode = "VALIDATION_ERROR"
	CodeUploadFailed       ErrorCode = "UPLOAD_FAILED"
	CodeCancelled          ErrorCode = "CANCELLED"
)

// ValidationError is a single pipeline failure with a user-facing message.
// It never crosses the batch loop as a raw error — it lives inside verdicts
// and upload records.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, format string, args ...any) ValidationError {
	return ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// FormatSize renders a byte count the way upload messages expect it,
// e.g. "512.00 MB". Base 1024, always two decimals.
func FormatSize(bytes uint64) string {
	const unit = 1024
	if bytes == 0 {
		return "0 Bytes"
	}
	if bytes < unit {
		return fmt.Sprintf("%d Bytes", bytes)
	}
	value := float64(bytes)
	for _, suffix := range []string{"KB", "MB", "GB"} {
		value /= unit
		if value < unit || suffix == "GB" {
			return fmt.Sprintf("%.2f %s", value, suffix)
		}
	}
	return fmt.Sprintf("%d Bytes", bytes)
}

// FormatDuration renders seconds as "90s", "12m 30s" or "1h 5m".
func FormatDuration(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", int(seconds+0.5))
	}
	minutes := int(seconds) / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, int(seconds+0.5)%60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
