// Package earlydata decodes the early-data handshake header carried in the
// WebSocket upgrade request's Sec-WebSocket-Protocol header.
package earlydata

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Decode turns the verbatim Sec-WebSocket-Protocol header value into the
// early-data byte buffer it encodes. header may be empty, in which case
// Decode returns a nil buffer and no error.
//
// The encoding is base64url with "-"/"_" swapped back to "+"/"/" and
// padding treated as optional, matching the handshake convention this
// gateway's clients use.
func Decode(header string) ([]byte, error) {
	if header == "" {
		return nil, nil
	}

	std := strings.NewReplacer("-", "+", "_", "/").Replace(header)

	data, err := base64.StdEncoding.WithPadding(base64.NoPadding).DecodeString(
		strings.TrimRight(std, "="),
	)
	if err != nil {
		return nil, fmt.Errorf("earlydata: decoding handshake header: %w", err)
	}
	return data, nil
}
