package html

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// PreviewSnippetID marks the hidden inbox preview text. It is not part of
// the readable message.
const PreviewSnippetID = "__mailinline-preview"

var (
	skippedSelector = "img, script, style, head, title, #" + PreviewSnippetID
	spaceRegex      = regexp.MustCompile(`[ \t\r\n\f]+`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "div": true, "dl": true, "dt": true, "dd": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// ToPlainText renders markup as readable plain text for the text/plain
// part of a message. Images and the preview snippet are skipped; links
// whose text differs from their target get the target in brackets.
func ToPlainText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(skippedSelector).Remove()

	var sb strings.Builder
	for _, n := range doc.Selection.Nodes {
		writeText(&sb, n)
	}

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text := blankLinesRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}

func writeText(sb *strings.Builder, n *xhtml.Node) {
	switch n.Type {
	case xhtml.TextNode:
		sb.WriteString(spaceRegex.ReplaceAllString(n.Data, " "))
		return
	case xhtml.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(sb, c)
		}
		return
	}

	switch n.Data {
	case "br":
		sb.WriteString("\n")
		return
	case "hr":
		sb.WriteString("\n\n")
		return
	case "td", "th":
		sb.WriteString(" ")
	case "li":
		sb.WriteString("\n * ")
	}

	block := blockElements[n.Data]
	if block {
		sb.WriteString("\n\n")
	}

	start := sb.Len()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}

	if n.Data == "a" {
		href := goquery.NewDocumentFromNode(n).AttrOr("href", "")
		label := strings.TrimSpace(sb.String()[start:])
		if href != "" && href != label && !strings.HasPrefix(href, "#") {
			if label == "" {
				sb.WriteString(href)
			} else {
				sb.WriteString(" [" + href + "]")
			}
		}
	}

	if block {
		sb.WriteString("\n\n")
	}
}
