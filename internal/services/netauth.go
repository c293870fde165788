package services

import (
	"fmt"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/attendly-backend/internal/pkg/apierr"
	"github.com/yungbote/attendly-backend/internal/pkg/logger"
	"github.com/yungbote/attendly-backend/internal/utils"
)

// NetworkAuthorizer decides whether a client network identifier may open or
// close a session right now. Stateless after construction; safe for
// concurrent use.
type NetworkAuthorizer interface {
	// IsAuthorized returns (false, *apierr.Error with NETWORK_UNRESOLVED)
	// when the identifier is empty or unparseable, (false, nil) when the
	// network is simply not on the allowlist, and (true, nil) on a match.
	IsAuthorized(clientIP string) (bool, error)
}

type cidrAuthorizer struct {
	log      *logger.Logger
	prefixes []netip.Prefix
}

// NewNetworkAuthorizer parses the allowlist once. Entries are CIDR prefixes
// or bare IPs (treated as single-address prefixes). An empty allowlist means
// nothing is authorized: the gate fails closed, it never defaults open.
func NewNetworkAuthorizer(baseLog *logger.Logger, allowlist []string) (NetworkAuthorizer, error) {
	serviceLog := baseLog.With("service", "NetworkAuthorizer")

	prefixes := make([]netip.Prefix, 0, len(allowlist))
	for _, entry := range allowlist {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("parse authorized network %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("parse authorized network %q: %w", entry, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	if len(prefixes) == 0 {
		serviceLog.Warn("Authorized network allowlist is empty; all submits will be rejected")
	}
	return &cidrAuthorizer{log: serviceLog, prefixes: prefixes}, nil
}

func (a *cidrAuthorizer) IsAuthorized(clientIP string) (bool, error) {
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		return false, apierr.NetworkUnresolved(fmt.Errorf("client network identifier is empty"))
	}

	addr, err := netip.ParseAddr(clientIP)
	if err != nil {
		// Tolerate "ip:port" shapes from proxies before giving up.
		if ap, apErr := netip.ParseAddrPort(clientIP); apErr == nil {
			addr = ap.Addr()
		} else {
			return false, apierr.NetworkUnresolved(fmt.Errorf("unparseable client network identifier %q", clientIP))
		}
	}
	addr = addr.Unmap()

	for _, prefix := range a.prefixes {
		if prefix.Contains(addr) {
			return true, nil
		}
	}
	return false, nil
}

type allowlistFile struct {
	AuthorizedNetworks []string `yaml:"authorized_networks"`
}

// LoadAuthorizedNetworks reads the allowlist from AUTHORIZED_NETWORKS
// (comma-separated) or, if set, the YAML file at AUTHORIZED_NETWORKS_FILE.
// File entries and env entries are merged.
func LoadAuthorizedNetworks(log *logger.Logger) ([]string, error) {
	var entries []string

	if raw := utils.GetEnv("AUTHORIZED_NETWORKS", "", log); raw != "" {
		entries = append(entries, strings.Split(raw, ",")...)
	}

	if path := utils.GetEnv("AUTHORIZED_NETWORKS_FILE", "", log); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read authorized networks file: %w", err)
		}
		var file allowlistFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse authorized networks file: %w", err)
		}
		entries = append(entries, file.AuthorizedNetworks...)
	}

	return entries, nil
}
