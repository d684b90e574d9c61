package utils

// SafeDeref safely dereferences a string pointer and returns fallback if nil
func SafeDeref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
