package shared

import (
	"fmt"
	"regexp"
	"strconv"

	"dominicbreuker/netdemo/pkg/config"
)

var (
	transportRe = regexp.MustCompile(`^(tcp|ws|wss|udp)://([^:]*):(\d+)$`)
	portRe      = regexp.MustCompile(`^\d+$`)
)

// ParseListenArg parses the echo server's positional argument. It is either
// a bare port like "777", which listens on TCP, or a transport like
// "ws://127.0.0.1:777". The host can be empty or "*" to bind to all
// interfaces. A host given in the transport overrides --host, which is
// reported as an empty host here.
func ParseListenArg(s string) (proto config.Protocol, host string, port int, err error) {
	if portRe.MatchString(s) {
		port, err = parsePort(s)
		if err != nil {
			return 0, "", 0, parsingError(s)
		}
		return config.ProtoTCP, "", port, nil
	}

	matches := transportRe.FindStringSubmatch(s)
	if len(matches) != 4 {
		return 0, "", 0, parsingError(s)
	}

	proto, err = config.ParseProtocol(matches[1])
	if err != nil {
		return 0, "", 0, parsingError(s)
	}

	host = matches[2]
	if host == "*" { // also counts as all interfaces
		host = ""
	}

	port, err = parsePort(matches[3])
	if err != nil {
		return 0, "", 0, parsingError(s)
	}

	return proto, host, port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %s", s)
	}
	return port, nil
}

func parsingError(s string) error {
	return fmt.Errorf("parsing %s: should be a port in [1, 65535] or 'protocol://host:port', where protocol = tcp|ws|wss|udp", s)
}
