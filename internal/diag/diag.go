// Package diag collects non-fatal findings of a single render call.
package diag

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Collector accumulates warnings for one render. It is not safe for
// concurrent use; every render owns its own collector.
type Collector struct {
	log      *zap.Logger
	warnings []string
	unknown  []string
	seen     map[string]bool
}

// NewCollector creates a collector that also reports each warning to log
func NewCollector(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		log:  log,
		seen: make(map[string]bool),
	}
}

// Warn records a warning message
func (c *Collector) Warn(msg string, fields ...zap.Field) {
	c.warnings = append(c.warnings, msg)
	c.log.Warn(msg, fields...)
}

// Warnf records a formatted warning message
func (c *Collector) Warnf(format string, args ...any) {
	c.Warn(fmt.Sprintf(format, args...))
}

// UnknownClass records a class that matched no rule. Repeated names are
// recorded once.
func (c *Collector) UnknownClass(name string) {
	if c.seen[name] {
		return
	}
	c.seen[name] = true
	c.unknown = append(c.unknown, name)
}

// UnknownClasses returns unknown class names in the order they were found
func (c *Collector) UnknownClasses() []string {
	out := make([]string, len(c.unknown))
	copy(out, c.unknown)
	return out
}

// Warnings returns every recorded warning. Unknown classes are folded into
// a single trailing message.
func (c *Collector) Warnings() []string {
	out := make([]string, 0, len(c.warnings)+1)
	out = append(out, c.warnings...)
	if len(c.unknown) > 0 {
		out = append(out, UnknownClassesMessage(c.unknown))
	}
	return out
}

// Flush logs the unknown class summary, if any
func (c *Collector) Flush() {
	if len(c.unknown) > 0 {
		c.log.Warn(UnknownClassesMessage(c.unknown), zap.Strings("classes", c.unknown))
	}
}

// UnknownClassesMessage formats the unknown class summary
func UnknownClassesMessage(classes []string) string {
	return fmt.Sprintf("You are using the following classes that were not recognized: %s.", strings.Join(classes, " "))
}
