package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripHTML replaces every tag with a space and keeps the text between them.
// Script and style bodies are dropped.
func StripHTML(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return input
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			sb.WriteByte(' ')
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return sb.String()
}

// StripURLs removes http and https links.
func StripURLs(input string) string {
	return urlPattern.ReplaceAllString(input, " ")
}

// CollapseWhitespace folds runs of whitespace into single spaces and trims.
func CollapseWhitespace(input string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(input, " "))
}

// CleanForSpeech turns a model answer into text suitable for synthesis.
func CleanForSpeech(input string) string {
	out := StripHTML(input)
	out = PlainText(out)
	out = StripURLs(out)
	return CollapseWhitespace(out)
}
