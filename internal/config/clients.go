package config

import (
	"slices"
	"strings"
)

var knownClients = []string{"generic", "outlook", "outlook_desktop", "outlook_online", "outlook_web", "gmail", "gmail_web", "apple_mail", "mail_app"}

// KnownClients lists accepted target_email_client values
func KnownClients() []string {
	return slices.Clone(knownClients)
}

// IsKnownClient reports whether client names a compatibility profile
func IsKnownClient(client string) bool {
	return slices.Contains(knownClients, strings.ToLower(client))
}

// EmailClientCompatibility holds information about email client CSS support
type EmailClientCompatibility struct {
	SupportsMediaQueries    bool
	SupportsPseudoSelectors map[string]bool // :hover, :focus, etc.
	MaxStylesheetSize       int             // in bytes, 0 = no limit
}

// SupportsPseudo reports whether a pseudo class such as ":hover" is honored
func (c EmailClientCompatibility) SupportsPseudo(pseudo string) bool {
	return c.SupportsPseudoSelectors[pseudo]
}

// GetCompatibilityProfile returns compatibility info for major email clients
func GetCompatibilityProfile(client string) EmailClientCompatibility {
	switch strings.ToLower(client) {
	case "outlook", "outlook_desktop":
		return EmailClientCompatibility{
			SupportsMediaQueries:    false, // Word rendering engine
			SupportsPseudoSelectors: map[string]bool{":hover": false, ":focus": false},
			MaxStylesheetSize:       65536,
		}
	case "gmail", "gmail_web":
		return EmailClientCompatibility{
			SupportsMediaQueries:    true,
			SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": true},
			MaxStylesheetSize:       16384, // clips <style> beyond 16KB
		}
	case "apple_mail", "mail_app":
		return EmailClientCompatibility{
			SupportsMediaQueries:    true,
			SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": true},
		}
	case "outlook_online", "outlook_web":
		return EmailClientCompatibility{
			SupportsMediaQueries:    true,
			SupportsPseudoSelectors: map[string]bool{":hover": true, ":focus": false},
			MaxStylesheetSize:       65536,
		}
	default:
		return EmailClientCompatibility{
			SupportsMediaQueries:    true,
			SupportsPseudoSelectors: map[string]bool{},
			MaxStylesheetSize:       32768,
		}
	}
}
