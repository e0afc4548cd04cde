package form

import "regexp"

// Highlight wraps every case-insensitive match of pattern in text between pre and
// post. Empty or malformed patterns leave text untouched.
func Highlight(text, pattern, pre, post string) string {
	if pattern == "" {
		return text
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(m string) string {
		if m == "" {
			return m
		}
		return pre + m + post
	})
}
