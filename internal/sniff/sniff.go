// Package sniff classifies the first chunk of a tunnel connection as one of
// the three supported protocols before any header is parsed.
package sniff

import (
	"github.com/google/uuid"

	"github.com/jaka1m/rokok/internal/route"
)

// Classify inspects the opening frame and returns which protocol produced
// it. Shadowsocks carries no magic bytes, so it is always the fallback once
// Trojan and VLESS have been ruled out.
func Classify(frame []byte) route.ProtocolKind {
	if looksLikeTrojan(frame) {
		return route.Trojan
	}
	if looksLikeVLESS(frame) {
		return route.VLESS
	}
	return route.Shadowsocks
}

// looksLikeTrojan checks for the CRLF + cmd + atyp marker Trojan places at
// offset 56: byte 56 is CR, 57 is LF, 58 is a valid command, 59 a valid
// address type.
func looksLikeTrojan(frame []byte) bool {
	if len(frame) < 62 {
		return false
	}
	if frame[56] != 0x0D || frame[57] != 0x0A {
		return false
	}
	switch frame[58] {
	case 0x01, 0x03, 0x7F:
	default:
		return false
	}
	switch frame[59] {
	case 0x01, 0x03, 0x04:
	default:
		return false
	}
	return true
}

// looksLikeVLESS checks whether bytes [1..17) form a UUIDv4: the version
// nibble must be 4 and the variant nibble RFC 4122.
func looksLikeVLESS(frame []byte) bool {
	if len(frame) < 17 {
		return false
	}
	id, err := uuid.FromBytes(frame[1:17])
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}
