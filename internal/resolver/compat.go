package resolver

import "strings"

// CompatibilityIssue describes an inlined declaration the target client is
// known to mishandle
type CompatibilityIssue struct {
	Property string
	Value    string
	Message  string
}

func isOutlookDesktop(client string) bool {
	switch strings.ToLower(client) {
	case "outlook", "outlook_desktop":
		return true
	}
	return false
}

// CheckCompatibility reports problematic declarations for client
func CheckCompatibility(decls []Declaration, client string) []CompatibilityIssue {
	var issues []CompatibilityIssue
	outlook := isOutlookDesktop(client)

	for _, d := range decls {
		add := func(msg string) {
			issues = append(issues, CompatibilityIssue{Property: d.Property, Value: d.Value, Message: msg})
		}

		switch d.Property {
		case "background-image", "background":
			if outlook && strings.Contains(d.Value, "url(") {
				add("Background images may not render in Outlook desktop")
			}
		case "width", "height", "min-width", "min-height", "max-width", "max-height":
			if strings.Contains(d.Value, "vw") || strings.Contains(d.Value, "vh") {
				add("Viewport units not supported in email clients")
			}
		case "position":
			if outlook && d.Value != "static" {
				add("Positioning not supported in this email client")
			}
		case "display":
			if outlook && (strings.Contains(d.Value, "flex") || strings.Contains(d.Value, "grid")) {
				add("Flex and grid layouts are ignored by Outlook desktop")
			}
		}
	}
	return issues
}
