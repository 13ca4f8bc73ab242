package models

var numberWords = map[int64]string{
	1: "one",
	2: "two",
	3: "three",
	4: "four",
	5: "five",
	6: "six",
}

// FallbackTitle returns the id-derived title of a node: the English word for
// ids 1 through 6 and "unknown" for anything else.
func FallbackTitle(id int64) string {
	if word, ok := numberWords[id]; ok {
		return word
	}
	return "unknown"
}
