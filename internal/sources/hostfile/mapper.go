package hostfile

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/nvrsync/internal/domain"
)

// Mapper converts file entries to domain hosts.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapHosts validates every entry. The file is written by hand, so one bad
// entry rejects the whole file instead of silently dropping a host.
func (m *Mapper) MapHosts(file *File) ([]domain.Host, error) {
	if file == nil {
		return nil, nil
	}

	hosts := make([]domain.Host, 0, len(file.Hosts))
	seen := make(map[string]string, len(file.Hosts))

	for i, entry := range file.Hosts {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("host #%d: name is required", i+1)
		}

		base, err := normalizeURL(entry.URL)
		if err != nil {
			return nil, fmt.Errorf("host %q: %w", name, err)
		}
		if other, dup := seen[base]; dup {
			return nil, fmt.Errorf("host %q: url %s already used by %q", name, base, other)
		}
		seen[base] = name

		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}

		hosts = append(hosts, domain.Host{
			Name:    name,
			URL:     base,
			Enabled: enabled,
		})
	}
	return hosts, nil
}

// normalizeURL accepts http(s) base URLs and strips the trailing slash so
// the same host is always registered under the same key.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url %q: scheme must be http or https", raw)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
