// internal/app/system/limits/limits.go
package limits

// Request body caps. Anything past these is cut off at the reader, not
// buffered.
const (
	// MaxJSONBodySize caps JSON request bodies.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxPhotoUploadSize caps profile photo uploads.
	MaxPhotoUploadSize = 5 << 20 // 5 MB
)
