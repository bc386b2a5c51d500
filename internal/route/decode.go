package route

// Decode runs the decoder for kind against frame and enforces the one
// cross-protocol invariant that isn't protocol-specific: UDP is only ever
// permitted for port 53 (DNS-over-TCP). Any other UDP request is a fatal
// route error, regardless of which protocol carried it.
func Decode(kind ProtocolKind, frame []byte) (*Info, error) {
	var (
		info *Info
		err  error
	)

	switch kind {
	case Trojan:
		info, err = DecodeTrojan(frame)
	case VLESS:
		info, err = DecodeVLESS(frame)
	case Shadowsocks:
		info, err = DecodeShadowsocks(frame)
	default:
		return nil, newErr(ErrUnknownProtocol, 0)
	}
	if err != nil {
		return nil, err
	}

	if info.IsUDP && info.Port != 53 {
		return nil, newErr(ErrUDPNotAllowed, int(info.Port))
	}

	return info, nil
}
