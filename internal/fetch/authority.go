package fetch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

// Tier is the authority level of a source
type Tier string

const (
	TierPrimary   Tier = "primary"   // Registries, filings, official records
	TierSecondary Tier = "secondary" // Established press and professional networks
	TierTertiary  Tier = "tertiary"  // Everything else, including the company's own site
	TierInline    Tier = "inline"    // Submitted with the application, no external source
)

// Credibility maps a tier to the credibility score recorded on verifications
func (t Tier) Credibility() float64 {
	switch t {
	case TierPrimary:
		return 0.9
	case TierSecondary:
		return 0.7
	case TierTertiary:
		return 0.45
	default:
		return 0.3
	}
}

// AuthorityClassifier classifies source URLs into authority tiers
type AuthorityClassifier struct {
	domainMap    map[string]Tier
	primary      []string
	secondary    []string
	pathPatterns []compiledPattern
}

type compiledPattern struct {
	pattern *regexp.Regexp
	tier    Tier
}

// NewAuthorityClassifier creates a classifier; a nil config uses the defaults
func NewAuthorityClassifier(cfg *model.AuthorityConfig) *AuthorityClassifier {
	if cfg == nil {
		cfg = &model.DefaultConfig().Authority
	}

	a := &AuthorityClassifier{
		domainMap: make(map[string]Tier),
		primary:   normalizeDomains(cfg.PrimaryDomains),
		secondary: normalizeDomains(cfg.SecondaryDomains),
	}
	for host, tier := range cfg.DomainMap {
		a.domainMap[strings.ToLower(host)] = ParseTier(tier)
	}
	for _, p := range cfg.PathPatterns {
		if re, err := regexp.Compile(p.Pattern); err == nil {
			a.pathPatterns = append(a.pathPatterns, compiledPattern{pattern: re, tier: ParseTier(p.Tier)})
		}
	}
	return a
}

// Classify classifies a URL into an authority tier
func (a *AuthorityClassifier) Classify(rawURL string) Tier {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return TierTertiary
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	if tier, ok := a.domainMap[host]; ok {
		return tier
	}
	if matchesDomain(host, a.primary) {
		return TierPrimary
	}
	if matchesDomain(host, a.secondary) {
		return TierSecondary
	}
	for _, cp := range a.pathPatterns {
		if cp.pattern.MatchString(parsed.Path) {
			return cp.tier
		}
	}
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".gov.uk") {
		return TierPrimary
	}
	return TierTertiary
}

// ParseTier converts a configured tier name to a Tier
func ParseTier(s string) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary", "1":
		return TierPrimary
	case "secondary", "2":
		return TierSecondary
	default:
		return TierTertiary
	}
}

func normalizeDomains(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// matchesDomain reports whether host is one of domains or a subdomain of one
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
