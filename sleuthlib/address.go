package sleuthlib

import (
	"net/netip"
	"strings"
)

const segmentIPv6PrefixLength = 64

var (
	segmentKeyEscaper   = strings.NewReplacer(".", "_", ":", "-")
	segmentKeyUnescaper = strings.NewReplacer("_", ".", "-", ":")
)

// ValidateAddress checks that a given string is a valid IPv4 or IPv6
// literal.
func ValidateAddress(addr string) bool {
	_, err := netip.ParseAddr(addr)

	return err == nil
}

// SegmentOf returns a segment of the address. For IPv4 this is a first
// 3 octets (1.2.3 for 1.2.3.4), for IPv6 - network address of /64
// (2001:db8:1:2:: for 2001:db8:1:2:3:4:5:6).
//
// IPv4-mapped IPv6 addresses are treated as IPv6 ones.
func SegmentOf(addr string) (string, bool) {
	parsed, err := netip.ParseAddr(addr)
	if err != nil {
		return "", false
	}

	parsed = parsed.WithZone("")

	if parsed.Is4() {
		octets := strings.Split(parsed.String(), ".")

		return strings.Join(octets[:3], "."), true
	}

	prefix, err := parsed.Prefix(segmentIPv6PrefixLength)
	if err != nil {
		return "", false
	}

	return prefix.Addr().String(), true
}

// EscapeSegment makes a segment safe to use as a storage key: a file
// name, redis key or a primary key. Segments contain only digits, hex
// letters, dots and colons so this mapping is reversible.
func EscapeSegment(segment string) string {
	return segmentKeyEscaper.Replace(segment)
}

// UnescapeSegment reverts EscapeSegment.
func UnescapeSegment(key string) string {
	return segmentKeyUnescaper.Replace(key)
}
