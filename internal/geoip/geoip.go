// Package geoip resolves IP addresses to ISO country codes using a local
// MaxMind GeoIP2/GeoLite2 database. Enrichment only; a nil Resolver is a
// valid no-op.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver answers country lookups from an mmdb file.
type Resolver struct {
	db *geoip2.Reader
}

// Open loads the database at path.
func Open(path string) (*Resolver, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Resolver{db: db}, nil
}

// Country returns the ISO country code for addr, or "" when the resolver is
// nil, the address does not parse, or the database has no answer.
func (r *Resolver) Country(addr string) string {
	if r == nil || addr == "" {
		return ""
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	rec, err := r.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil {
		return nil
	}
	return r.db.Close()
}
