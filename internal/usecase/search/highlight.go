package search

import "regexp"

// highlight wraps every case-insensitive occurrence of term in text with
// <mark> tags. The term is user input and is matched literally: regex
// metacharacters are escaped before compiling. A term that still fails to
// compile (invalid UTF-8) leaves the text unhighlighted.
func highlight(text, term string) string {
	if text == "" || term == "" {
		return text
	}
	re, err := regexp.Compile(`(?i)(` + regexp.QuoteMeta(term) + `)`)
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, "<mark>${1}</mark>")
}
