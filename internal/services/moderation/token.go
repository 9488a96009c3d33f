package moderation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
)

var ErrMalformedToken = errors.New("malformed decision token")

const tokenSeparator = "_"

func FormatDecisionToken(decision enums.Decision, reporterID int64) string {
	return string(decision) + tokenSeparator + strconv.FormatInt(reporterID, 10)
}

// ParseDecisionToken decodes "<approve|reject>_<reporter id>". The id must be
// plain decimal digits.
func ParseDecisionToken(token string) (enums.Decision, int64, error) {
	parts := strings.Split(token, tokenSeparator)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedToken, token)
	}

	decision := enums.Decision(parts[0])
	if !decision.Valid() {
		return "", 0, fmt.Errorf("%w: unknown action %q", ErrMalformedToken, parts[0])
	}

	raw := parts[1]
	if raw == "" || strings.IndexFunc(raw, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return "", 0, fmt.Errorf("%w: reporter id %q", ErrMalformedToken, raw)
	}
	reporterID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || reporterID <= 0 {
		return "", 0, fmt.Errorf("%w: reporter id %q", ErrMalformedToken, raw)
	}

	return decision, reporterID, nil
}
