package route

import "encoding/binary"

var ssTags = addrTags{ipv4: 1, domain: 3, ipv6: 4}

// DecodeShadowsocks decodes a Shadowsocks header: atyp(1) | addr(var) |
// port(2,BE) | residual. isUDP is inferred from port == 53, since
// Shadowsocks carries no explicit command byte.
func DecodeShadowsocks(frame []byte) (*Info, error) {
	if len(frame) < 1 {
		return nil, newErr(ErrMalformed, 0)
	}

	atyp := frame[0]
	addr, n, err := decodeAddress(frame[1:], atyp, ssTags, false)
	if err != nil {
		return nil, err
	}

	rest := frame[1+n:]
	if len(rest) < 2 {
		return nil, newErr(ErrMalformed, 0)
	}
	port := binary.BigEndian.Uint16(rest[:2])
	residual := rest[2:]

	return &Info{
		Protocol: Shadowsocks,
		Addr:     addr,
		Port:     port,
		Residual: residual,
		IsUDP:    port == 53,
	}, nil
}
