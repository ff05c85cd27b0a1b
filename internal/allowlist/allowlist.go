package allowlist

import (
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Checker reports whether a URL points at an operator-trusted domain
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker. Entries match the host
// exactly or any of its subdomains.
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		d := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
		if d == "" {
			continue
		}
		normalized = append(normalized, d)
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized allowlist checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsTrusted checks if the host of rawURL is on the allowlist
func (c *Checker) IsTrusted(rawURL string) bool {
	if len(c.domains) == 0 {
		return false
	}

	host := hostOf(rawURL)
	if host == "" {
		return false
	}

	for _, trusted := range c.domains {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			if c.logger != nil {
				c.logger.Debug("Domain is allowlisted",
					zap.String("host", host),
					zap.String("entry", trusted))
			}
			return true
		}
	}

	return false
}

// hostOf returns the lowercased host of rawURL without port, or "" when
// no host can be parsed
func hostOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}
