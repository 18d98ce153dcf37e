// Copyright 2025 VeloxVOIP.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ipfilter parses allowed-address lists for inbound trunk scoping.
// Entries may be single IPs or CIDR ranges, IPv4 or IPv6.
package ipfilter

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

type Filter struct {
	prefixes []netip.Prefix
}

// New parses allowed entries into a Filter. Single addresses become
// single-host prefixes. Blank entries are skipped; any malformed entry
// fails the whole list so a typo never silently widens trunk access.
func New(allowed []string) (*Filter, error) {
	f := &Filter{prefixes: make([]netip.Prefix, 0, len(allowed))}
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid IP/CIDR %q: %w", entry, err)
			}
			f.prefixes = append(f.prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid IP address %q: %w", entry, err)
		}
		f.prefixes = append(f.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return f, nil
}

// Contains reports whether the address is covered by any allowed prefix.
// Accepts bare addresses and "host:port" forms.
func (f *Filter) Contains(addr string) bool {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	for _, p := range f.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// Prefixes returns the canonical CIDR strings, suitable for a trunk
// provisioning request.
func (f *Filter) Prefixes() []string {
	out := make([]string, len(f.prefixes))
	for i, p := range f.prefixes {
		out[i] = p.String()
	}
	return out
}

// Normalize validates entries and returns them in canonical CIDR form.
func Normalize(allowed []string) ([]string, error) {
	f, err := New(allowed)
	if err != nil {
		return nil, err
	}
	return f.Prefixes(), nil
}
