package conversation

import (
	"net/url"
	"regexp"
	"strings"
)

const telegramHost = "t.me/"

var embeddedTelegramLink = regexp.MustCompile(`(?i)t\.me/([A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]+)`)

// NormalizeProofLink turns a proof-link answer into an absolute URL. The
// second return value is false when the text is not a link we accept.
func NormalizeProofLink(text string) (string, bool) {
	link := strings.TrimSpace(text)
	if link == "" {
		return "", false
	}

	lower := strings.ToLower(link)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		// Telegram refuses URL buttons without a host.
		u, err := url.Parse(link)
		if err != nil || u.Hostname() == "" {
			return "", false
		}
		return link, true
	case strings.HasPrefix(lower, telegramHost):
		tail := link[len(telegramHost):]
		if tail == "" {
			return "", false
		}
		return "https://" + telegramHost + tail, true
	}

	if strings.Contains(lower, telegramHost) {
		match := embeddedTelegramLink.FindStringSubmatch(link)
		if len(match) == 2 && strings.Trim(match[1], "/") != "" {
			return "https://" + telegramHost + match[1], true
		}
		return "", false
	}

	if strings.HasPrefix(link, "@") {
		name := strings.TrimPrefix(link, "@")
		if name == "" || strings.ContainsAny(name, " \t\r\n@/") {
			return "", false
		}
		return "https://" + telegramHost + name, true
	}

	return "", false
}
