package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArchitecture parses a comma-separated architecture string such as
// "2,8,8,2" into layer widths (inputs first, outputs last).
func ParseArchitecture(archStr string) ([]int, error) {
	parts := strings.Split(archStr, ",")
	arch := make([]int, len(parts))
	for i, s := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateArchitecture checks a demo-network architecture.
func ValidateArchitecture(arch []int) error {
	if len(arch) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}
	for i, n := range arch {
		if n <= 0 {
			return fmt.Errorf("layer %d must have a positive width", i)
		}
	}
	return nil
}
