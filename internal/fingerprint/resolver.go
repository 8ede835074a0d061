package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fallbacks recorded when the user agent carries no usable signal or the
// locator cannot place the address.
const (
	UnknownDevice   = "Unknown Device"
	UnknownPlatform = "Unknown"
	UnknownLocation = "Unknown"
)

// Locator maps a client IP address to a coarse geographic label. Implementations
// wrap external enrichment services; a failed lookup returns an error and the
// caller falls back to UnknownLocation.
type Locator interface {
	Locate(ctx context.Context, ip string) (string, error)
}

// NoopLocator always reports the unknown location. Used when no enrichment
// service is configured.
type NoopLocator struct{}

func (NoopLocator) Locate(ctx context.Context, ip string) (string, error) {
	return UnknownLocation, nil
}

// Device is the resolved identity of the client that initiated a login.
type Device struct {
	Fingerprint string // sha256 hex over the normalized inputs
	Name        string
	Platform    string
	Location    string
}

// Resolver derives a stable device fingerprint and display attributes from the
// raw request signals. Resolution never fails: missing or garbled inputs
// degrade to the Unknown fallbacks, and the fingerprint still hashes whatever
// was provided so repeat logins from the same client collapse to one identity.
type Resolver struct {
	locator Locator
}

// NewResolver returns a Resolver using locator for geographic enrichment.
// locator may be nil; then all locations resolve to UnknownLocation.
func NewResolver(locator Locator) *Resolver {
	if locator == nil {
		locator = NoopLocator{}
	}
	return &Resolver{locator: locator}
}

// Resolve builds the device identity for a login. deviceInfo is a client-supplied
// display name that, when present, takes precedence over the name derived from
// the user agent. It participates in the hash, so renaming a device on the
// client yields a new fingerprint.
func (r *Resolver) Resolve(ctx context.Context, userAgent, deviceInfo, ip string) Device {
	platform := platformFromUserAgent(userAgent)
	name := strings.TrimSpace(deviceInfo)
	if name == "" {
		name = deviceNameFromUserAgent(userAgent, platform)
	}

	location := UnknownLocation
	if loc, err := r.locator.Locate(ctx, ip); err == nil && loc != "" {
		location = loc
	}

	normalized := strings.ToLower(strings.TrimSpace(userAgent)) + "|" + platform + "|" + name
	h := sha256.Sum256([]byte(normalized))

	return Device{
		Fingerprint: hex.EncodeToString(h[:]),
		Name:        name,
		Platform:    platform,
		Location:    location,
	}
}

// platformFromUserAgent picks the operating system from well-known user agent
// substrings. Order matters: Android user agents also contain "linux", and
// iPad/iPhone agents contain "mac os".
func platformFromUserAgent(ua string) string {
	s := strings.ToLower(ua)
	switch {
	case strings.Contains(s, "android"):
		return "Android"
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipad"), strings.Contains(s, "ipod"):
		return "iOS"
	case strings.Contains(s, "windows"):
		return "Windows"
	case strings.Contains(s, "mac os"), strings.Contains(s, "macintosh"):
		return "macOS"
	case strings.Contains(s, "linux"):
		return "Linux"
	default:
		return UnknownPlatform
	}
}

// deviceNameFromUserAgent builds a human-readable label like "Chrome on Windows".
func deviceNameFromUserAgent(ua, platform string) string {
	browser := browserFromUserAgent(ua)
	if browser == "" && platform == UnknownPlatform {
		return UnknownDevice
	}
	if browser == "" {
		return platform + " Device"
	}
	if platform == UnknownPlatform {
		return browser
	}
	return browser + " on " + platform
}

// browserFromUserAgent picks the browser family. Edge and Opera ship Chrome's
// token, and every WebKit browser ships Safari's, so the checks run from most
// specific to least.
func browserFromUserAgent(ua string) string {
	s := strings.ToLower(ua)
	switch {
	case strings.Contains(s, "edg/"), strings.Contains(s, "edge/"):
		return "Edge"
	case strings.Contains(s, "opr/"), strings.Contains(s, "opera"):
		return "Opera"
	case strings.Contains(s, "firefox/"):
		return "Firefox"
	case strings.Contains(s, "chrome/"), strings.Contains(s, "crios/"):
		return "Chrome"
	case strings.Contains(s, "safari/"):
		return "Safari"
	default:
		return ""
	}
}
