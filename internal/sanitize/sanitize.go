// Package sanitize strips markup from user-supplied free text before it is
// stored or relayed. Petfolio is a JSON API and never renders user input as
// HTML itself, but contact messages are forwarded by email and names end up
// in other clients, so everything user-written passes through the strict
// policy first.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy. StrictPolicy strips every tag
// and attribute, leaving plain text. Initialized once via sync.Once for
// thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text returns the input with all HTML removed and surrounding whitespace
// trimmed. Call this on every user-provided free-text field (names, breeds,
// contact messages) before persisting it.
func Text(input string) string {
	return strings.TrimSpace(getPolicy().Sanitize(input))
}
