package whoisage

import (
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"
)

// creationDateLayouts covers the date formats registries are known to emit.
var creationDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

// Resolver answers "how many days old is this domain" via a WHOIS query.
// Every failure path degrades to unknown; a lookup never aborts a scan.
type Resolver struct {
	client *whois.Client
}

// NewResolver creates a resolver whose registry queries are bounded by
// timeout.
func NewResolver(timeout time.Duration) *Resolver {
	client := whois.NewClient()
	client.SetTimeout(timeout)

	return &Resolver{client: client}
}

// Lookup returns the age in days of the domain behind rawURL, or nil when
// the registry is unreachable, the reply does not parse, or it carries no
// creation date.
func (r *Resolver) Lookup(rawURL string) *int {
	domain := ExtractDomain(rawURL)
	if domain == "" {
		return nil
	}
	return r.ageDays(domain)
}

func (r *Resolver) ageDays(domain string) *int {
	raw, err := r.client.Whois(domain)
	if err != nil {
		return nil
	}

	parsed, err := parser.Parse(raw)
	if err != nil || parsed.Domain == nil {
		// Registries answer for registrable domains only; retry a
		// subdomain query against its parent.
		parts := strings.Split(domain, ".")
		if len(parts) > 2 {
			return r.ageDays(strings.Join(parts[1:], "."))
		}
		return nil
	}

	created, ok := ParseCreationDate(parsed.Domain.CreatedDate)
	if !ok {
		return nil
	}

	age := int(time.Since(created).Hours() / 24)
	return &age
}

// ExtractDomain strips the scheme from rawURL and takes the substring up to
// the first path separator. No well-formedness validation is done.
func ExtractDomain(rawURL string) string {
	host := rawURL
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	host = strings.Split(host, "/")[0]
	return strings.TrimSpace(host)
}

// ParseCreationDate tries the known registry date layouts in order.
func ParseCreationDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range creationDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
