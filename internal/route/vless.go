package route

import "encoding/binary"

var vlessTags = addrTags{ipv4: 1, domain: 2, ipv6: 3}

const (
	vlessCmdTCP = 1
	vlessCmdUDP = 2
)

// DecodeVLESS decodes a VLESS header:
//
//	version(1) | uuid(16) | optLen(1) | opts(optLen) | cmd(1) | port(2,BE) | atyp(1) | addr(var) | residual
//
// The response prelude {version, 0x00} is always populated: it is sent back
// to the client as the prefix of the first remote->WS frame.
func DecodeVLESS(frame []byte) (*Info, error) {
	if len(frame) < 1+16+1 {
		return nil, newErr(ErrMalformed, 0)
	}

	version := frame[0]
	optLen := int(frame[17])
	cmdOffset := 18 + optLen
	if len(frame) < cmdOffset+1+2+1 {
		return nil, newErr(ErrMalformed, 0)
	}

	cmd := frame[cmdOffset]
	isUDP, err := vlessCommand(cmd)
	if err != nil {
		return nil, err
	}

	port := binary.BigEndian.Uint16(frame[cmdOffset+1 : cmdOffset+3])
	atyp := frame[cmdOffset+3]

	addr, n, err := decodeAddress(frame[cmdOffset+4:], atyp, vlessTags, true)
	if err != nil {
		return nil, err
	}

	residual := frame[cmdOffset+4+n:]

	return &Info{
		Protocol:        VLESS,
		Addr:            addr,
		Port:            port,
		Residual:        residual,
		IsUDP:           isUDP,
		ResponsePrelude: []byte{version, 0x00},
	}, nil
}

func vlessCommand(cmd byte) (isUDP bool, err error) {
	switch cmd {
	case vlessCmdTCP:
		return false, nil
	case vlessCmdUDP:
		return true, nil
	default:
		return false, newErr(ErrUnsupportedCommand, int(cmd))
	}
}
