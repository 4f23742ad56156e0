// internal/app/system/csvutil/limits.go
package csvutil

// Size and row caps for uploaded CSV files.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)
