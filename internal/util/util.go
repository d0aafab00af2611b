package util

import "math"

// Contains checks if a slice contains a specific string.
func Contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}

// BytesToGB rounds a byte count to whole gigabytes (units of 1024^3
// bytes).
func BytesToGB[T ~int | ~int64 | ~uint64](bytes T) int {
	return int(math.Round(float64(bytes) / 1024.0 / 1024.0 / 1024.0))
}
