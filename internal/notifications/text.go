package notifications

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AlertTitle is the heading used for new-submission alerts.
const AlertTitle = "New submission"

// UnreadMessage returns the alert body for unread, for example
// "You have 1 unread submission." or "You have 1,204 unread submissions.".
func UnreadMessage(unread int) string {
	p := message.NewPrinter(localeTag())
	if unread == 1 {
		return "You have 1 unread submission."
	}
	return p.Sprintf("You have %d unread submissions.", unread)
}

// FormatCount renders n with the locale's digit grouping.
func FormatCount(n int) string {
	return message.NewPrinter(localeTag()).Sprintf("%d", n)
}

// localeTag derives the language from LC_ALL, LC_NUMERIC, or LANG and falls
// back to English.
func localeTag() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		if idx := strings.IndexAny(value, ".@"); idx >= 0 {
			value = value[:idx]
		}
		if tag, err := language.Parse(strings.ReplaceAll(value, "_", "-")); err == nil {
			return tag
		}
	}
	return language.English
}
