package utils

import "strings"

func ToPtr[T any](v T) *T {
	return &v
}

// TrimPtr обрезает пробелы, не теряя различия между "не передано" и "передано".
func TrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
