package whitelist

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether a sender belongs to a trusted domain. Mail from
// trusted domains is passed through without classification.
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new trusted domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalized := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.Trim(strings.ToLower(strings.TrimSpace(domain)), ".")
		if domain != "" {
			normalized = append(normalized, domain)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized trusted domain checker", zap.Strings("domains", normalized))
	}

	return &Checker{
		domains: normalized,
		logger:  logger,
	}
}

// IsWhitelisted reports whether from is an address in a trusted domain or
// one of its subdomains. from may be a bare address or a full From header.
func (c *Checker) IsWhitelisted(from string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := senderDomain(from)
	if domain == "" {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			if c.logger != nil {
				c.logger.Debug("Domain is trusted",
					zap.String("domain", domain),
					zap.String("email", from))
			}
			return true
		}
	}

	return false
}

func senderDomain(from string) string {
	address := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}
	address = strings.Trim(address, "<>")

	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
