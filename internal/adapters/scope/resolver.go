// Package scope decides whether a URL belongs to the domain being recorded.
// Registrable-domain extraction is data-driven via the embedded public suffix
// list, so multi-label suffixes like co.uk are stripped correctly.
package scope

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var errNoHost = errors.New("scope: url has no host")

// Resolver is bound to a session's root domain at start and is immutable
// afterwards. It performs no network access.
type Resolver struct {
	root string
	// localhost and IP literals have no subdomain concept; exact match only.
	literal bool
}

// NewResolver derives the root domain from the session's start URL.
func NewResolver(startURL string) (*Resolver, error) {
	root, err := ExtractRootDomain(startURL)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: root, literal: isHostLiteral(root)}, nil
}

// RootDomain returns the scope anchor, e.g. "example.co.uk".
func (r *Resolver) RootDomain() string { return r.root }

// InScope reports whether the candidate URL's host equals the root domain or
// is a proper subdomain of it. Unparsable URLs are out of scope, never an
// error to the caller.
func (r *Resolver) InScope(rawURL string) bool {
	host, err := hostOf(rawURL)
	if err != nil {
		return false
	}
	if host == r.root {
		return true
	}
	if r.literal || isHostLiteral(host) {
		return false
	}
	return strings.HasSuffix(host, "."+r.root)
}

// ExtractRootDomain returns the registrable domain of a URL's host.
//
//	https://shop.example.co.uk/x -> example.co.uk
//	http://example.com:8080/x    -> example.com
//	http://localhost:3000/x      -> localhost
//	http://192.168.1.1/x         -> 192.168.1.1
func ExtractRootDomain(rawURL string) (string, error) {
	host, err := hostOf(rawURL)
	if err != nil {
		return "", err
	}
	if isHostLiteral(host) {
		return host, nil
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Single-label or suffix-only hosts (e.g. intranet names) anchor on
		// the host itself.
		return host, nil
	}
	return root, nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", errNoHost
	}
	return host, nil
}

func isHostLiteral(host string) bool {
	if host == "localhost" {
		return true
	}
	return net.ParseIP(host) != nil
}
