package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// ComputeMatChecksum generates a deterministic checksum of a Mat's pixels.
//
// Arguments:
// - mat: The Mat to compute checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty Mat.
//
// Example:
//
// ```go
//
//	if images.ComputeMatChecksum(reference) == images.ComputeMatChecksum(current) {
//		// identical frames, no motion possible
//	}
//
// ```
func ComputeMatChecksum(mat gocv.Mat) string {
	if mat.Empty() {
		return "empty"
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		return "unreadable"
	}
	hash := md5.New()
	hash.Write(data)
	return fmt.Sprintf("%dx%dx%d:%x", mat.Cols(), mat.Rows(), mat.Channels(), hash.Sum(nil))
}
