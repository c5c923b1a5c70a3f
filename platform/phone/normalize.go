// Package phone normalizes phone numbers entered for companies and clients.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number has no international prefix.
const DefaultRegion = "FR"

// NormalizeE164 returns the E.164 form of input, or the trimmed input when it
// cannot be parsed as a valid number.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
