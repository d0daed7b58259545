package inliner

import (
	"fmt"
	"regexp"
	"strings"

	"mailinline/internal/html"
)

// ValidationIssue represents an email compatibility issue found in a
// document before rendering
type ValidationIssue struct {
	Type     string // "structure", "css", "attribute"
	Severity string // "error", "warning", "info"
	Message  string
	Element  string
}

var fixedPositionRegex = regexp.MustCompile(`(?i)position\s*:\s*fixed`)

// Validate checks a document for structures email clients handle poorly
func (i *Inliner) Validate(document string) ([]ValidationIssue, error) {
	tree, err := html.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var issues []ValidationIssue
	issues = append(issues, validateStructure(tree)...)
	issues = append(issues, validateEmbeddedCSS(tree)...)
	if !i.config.KeepEventHandlers {
		issues = append(issues, validateAttributes(tree)...)
	}
	return issues, nil
}

func validateStructure(tree *html.Tree) []ValidationIssue {
	var issues []ValidationIssue

	if tree.Find("head") == html.Deleted {
		issues = append(issues, ValidationIssue{
			Type:     "structure",
			Severity: "warning",
			Message:  "Document has no <head>, responsive or pseudo class styles cannot be kept",
			Element:  "html",
		})
	}

	if tree.Find("table") == html.Deleted {
		issues = append(issues, ValidationIssue{
			Type:     "structure",
			Severity: "info",
			Message:  "Email should use table-based layout for better client compatibility",
			Element:  "body",
		})
	}

	return issues
}

func validateEmbeddedCSS(tree *html.Tree) []ValidationIssue {
	var issues []ValidationIssue

	for _, id := range tree.Elements() {
		var text string
		switch tree.Tag(id) {
		case "style":
			var sb strings.Builder
			for _, c := range tree.Node(id).Children {
				sb.WriteString(tree.Node(c).Data)
			}
			text = sb.String()
		default:
			text, _ = tree.Attr(id, "style")
		}

		if fixedPositionRegex.MatchString(text) {
			issues = append(issues, ValidationIssue{
				Type:     "css",
				Severity: "error",
				Message:  "position: fixed is not supported in email clients",
				Element:  tree.Tag(id),
			})
		}
	}

	return issues
}

func validateAttributes(tree *html.Tree) []ValidationIssue {
	var issues []ValidationIssue

	for _, id := range tree.Elements() {
		for _, key := range html.EventHandlerAttributes {
			if _, ok := tree.Attr(id, key); ok {
				issues = append(issues, ValidationIssue{
					Type:     "attribute",
					Severity: "info",
					Message:  fmt.Sprintf("%s attribute will be removed", key),
					Element:  tree.Tag(id),
				})
			}
		}
	}

	return issues
}
