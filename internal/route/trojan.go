package route

import "encoding/binary"

var trojanTags = addrTags{ipv4: 1, domain: 3, ipv6: 4}

const (
	trojanCmdTCP = 1
	trojanCmdUDP = 3

	trojanPreambleLen = 58 // 56-byte password hash + CRLF, validated by the sniffer
)

// DecodeTrojan decodes a Trojan header. The first 56 bytes (password hash)
// and the following CRLF are opaque here: the sniffer already confirmed
// they are present. Starting at offset 58:
//
//	cmd(1) | atyp(1) | addr(var) | port(2,BE) | CRLF(2) | residual
func DecodeTrojan(frame []byte) (*Info, error) {
	if len(frame) < trojanPreambleLen {
		return nil, newErr(ErrTrojanTooShort, 0)
	}

	sub := frame[trojanPreambleLen:]
	if len(sub) < 6 {
		return nil, newErr(ErrTrojanTooShort, 0)
	}

	cmd := sub[0]
	isUDP, err := trojanCommand(cmd)
	if err != nil {
		return nil, err
	}

	atyp := sub[1]
	addr, n, err := decodeAddress(sub[2:], atyp, trojanTags, true)
	if err != nil {
		return nil, err
	}

	rest := sub[2+n:]
	if len(rest) < 4 { // port(2) + CRLF(2)
		return nil, newErr(ErrTrojanTooShort, 0)
	}
	port := binary.BigEndian.Uint16(rest[:2])
	residual := rest[4:] // skip port and the terminating CRLF

	return &Info{
		Protocol: Trojan,
		Addr:     addr,
		Port:     port,
		Residual: residual,
		IsUDP:    isUDP,
	}, nil
}

func trojanCommand(cmd byte) (isUDP bool, err error) {
	switch cmd {
	case trojanCmdTCP:
		return false, nil
	case trojanCmdUDP:
		return true, nil
	default:
		return false, newErr(ErrUnsupportedCommand, int(cmd))
	}
}
