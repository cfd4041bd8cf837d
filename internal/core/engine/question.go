package engine

import "strings"

// ExtractQuestion pulls the question out of an assistant reply: the last
// sentence containing a question mark, or the last sentence when the reply
// asks nothing.
func ExtractQuestion(text string) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}
	for i := len(sentences) - 1; i >= 0; i-- {
		if strings.Contains(sentences[i], "?") {
			return sentences[i]
		}
	}
	return sentences[len(sentences)-1]
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		s := strings.TrimSpace(b.String())
		if s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '.', '!', '?', '\n':
			flush()
		}
	}
	flush()
	return out
}
