package motion

import (
	"fmt"
	"image"
)

// Region is a connected area of change found in a difference image.
type Region struct {
	// Box is the axis-aligned bounding box of the region.
	Box image.Rectangle
	// Area is the contour area of the region in pixels.
	Area float64
}

// Qualifies reports whether the region is large enough to count as motion.
// The comparison is strict: a region of exactly minArea does not qualify.
func (r Region) Qualifies(minArea float64) bool {
	return r.Area > minArea
}

func (r Region) String() string {
	return fmt.Sprintf("region %v area=%.0f", r.Box, r.Area)
}

// Qualifying returns the regions whose area exceeds minArea, in their original order.
func Qualifying(regions []Region, minArea float64) []Region {
	var out []Region
	for _, r := range regions {
		if r.Qualifies(minArea) {
			out = append(out, r)
		}
	}
	return out
}
