package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\p{Z}\s]+`)

// CleanText drops blank lines and keeps the remaining lines unchanged.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// nodeText concatenates every descendant text node of the first selected
// element, each trimmed, skipping the ones that are blank.
func nodeText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel.Nodes[0])
	return b.String()
}

// FindProfanity returns the first token of text found in words.
func FindProfanity(text string, words map[string]struct{}) (string, bool) {
	if len(words) == 0 {
		return "", false
	}
	normalized := punctuation.ReplaceAllString(strings.ToLower(text), "")
	for _, token := range strings.Fields(normalized) {
		if _, ok := words[token]; ok {
			return token, true
		}
	}
	return "", false
}
