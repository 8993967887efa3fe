// Package policy screens outgoing chat messages for off-platform contact
// sharing before they are accepted into the send path.
package policy

import (
	"fmt"
	"regexp"
)

// Reason tags why a message was rejected.
type Reason string

const (
	ReasonPhoneNumber   Reason = "phone_number"
	ReasonEmailAddress  Reason = "email_address"
	ReasonExternalLink  Reason = "external_link"
	ReasonStreetAddress Reason = "street_address"
)

// Violation is returned when message content fails validation. The message
// is not sent; the caller surfaces this to the user as a blocking error.
type Violation struct {
	Reason Reason
}

func (v *Violation) Error() string {
	return fmt.Sprintf("content policy violation: %s", v.Reason)
}

var (
	// 7+ digits with optional separators catches most phone formats without
	// flagging order numbers or word counts.
	phonePattern   = regexp.MustCompile(`(\+?\d[\d\s().-]{6,}\d)`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	linkPattern    = regexp.MustCompile(`(?i)(https?://|www\.)\S+|\b[a-z0-9-]+\.(com|net|org|io|me|co)(/\S*)?\b`)
	addressPattern = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(\s\w+)*\s+(street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr)\b`)
)

// Validator checks message text against the contact-sharing rules.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Check returns nil when content is acceptable, or a *Violation carrying the
// first matched reason. Order matters only for the reported reason; any
// match blocks the send.
func (v *Validator) Check(content string) error {
	switch {
	case emailPattern.MatchString(content):
		return &Violation{Reason: ReasonEmailAddress}
	case linkPattern.MatchString(content):
		return &Violation{Reason: ReasonExternalLink}
	case phonePattern.MatchString(content):
		return &Violation{Reason: ReasonPhoneNumber}
	case addressPattern.MatchString(content):
		return &Violation{Reason: ReasonStreetAddress}
	}
	return nil
}
