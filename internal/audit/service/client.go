package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeClient condenses a User-Agent into "Browser Version on OS".
// Bots are labelled as such; an empty agent yields "".
func DescribeClient(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot: " + name
	}

	var b strings.Builder
	b.WriteString(name)
	if version != "" {
		b.WriteString(" " + version)
	}
	if os := ua.OS(); os != "" {
		b.WriteString(" on " + os)
	}
	if ua.Mobile() {
		b.WriteString(" (mobile)")
	}
	return strings.TrimSpace(b.String())
}
