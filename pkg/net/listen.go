// Package net opens the stream listener of the echo server for the
// configured protocol and provides its TLS layer.
package net

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/crypto"
	"dominicbreuker/netdemo/pkg/format"
	"dominicbreuker/netdemo/pkg/log"
	"dominicbreuker/netdemo/pkg/transport/tcp"
	"dominicbreuker/netdemo/pkg/transport/udp"
	"dominicbreuker/netdemo/pkg/transport/ws"
)

// listenFuncs allows tests to replace the transports.
type listenFuncs struct {
	tcp func(addr string, deps *config.Dependencies) (net.Listener, error)
	ws  func(ctx context.Context, addr string, useTLS bool, logger *log.Logger, deps *config.Dependencies) (net.Listener, error)
	udp func(addr string) (net.Listener, error)
}

var realListenFuncs = listenFuncs{
	tcp: tcp.NewListener,
	ws: func(ctx context.Context, addr string, useTLS bool, logger *log.Logger, deps *config.Dependencies) (net.Listener, error) {
		return ws.NewListener(ctx, addr, useTLS, logger, deps)
	},
	udp: func(addr string) (net.Listener, error) {
		return udp.NewListener(addr)
	},
}

// Listen binds the listener for eCfg.Protocol on the configured host and port.
// Bind failures are returned as *transport.BindError.
func Listen(ctx context.Context, cfg *config.Shared, eCfg *config.Echo) (net.Listener, error) {
	return listen(ctx, cfg, eCfg, realListenFuncs)
}

func listen(ctx context.Context, cfg *config.Shared, eCfg *config.Echo, fns listenFuncs) (net.Listener, error) {
	addr := format.Addr(cfg.Host, cfg.Port)
	cfg.Logger.VerboseMsg("Creating listener for protocol %s at %s", eCfg.Protocol, addr)

	var (
		nl  net.Listener
		err error
	)

	switch eCfg.Protocol {
	case config.ProtoWS, config.ProtoWSS:
		nl, err = fns.ws(ctx, addr, eCfg.Protocol == config.ProtoWSS, cfg.Logger, cfg.Deps)
	case config.ProtoUDP:
		nl, err = fns.udp(addr)
	default:
		nl, err = fns.tcp(addr, cfg.Deps)
	}
	if err != nil {
		cfg.Logger.VerboseMsg("Failed to create %s listener: %v", eCfg.Protocol, err)
		return nil, err
	}

	return nl, nil
}

// ServerTLSConfig builds the TLS configuration of the echo server. The
// certificate is loaded from eCfg.CertFile and eCfg.KeyFile if set, otherwise
// it is generated. With a key, the certificate derives from it and clients
// must present a certificate derived from the same key.
func ServerTLSConfig(eCfg *config.Echo, logger *log.Logger) (*tls.Config, error) {
	if eCfg.CertFile != "" {
		logger.VerboseMsg("Loading TLS certificate from %s", eCfg.CertFile)

		cert, err := crypto.LoadCertificate(eCfg.CertFile, eCfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load certificate: %w", err)
		}

		return &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}, nil
	}

	logger.VerboseMsg("Generating TLS certificates for server")

	key := eCfg.GetKey()
	caCert, cert, err := crypto.GenerateCertificates(key)
	if err != nil {
		return nil, fmt.Errorf("generate certificates: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if key != "" {
		tlsCfg.ClientAuth = tls.RequireAndVerifyClientCert
		tlsCfg.ClientCAs = caCert
		logger.VerboseMsg("TLS mutual authentication enabled")
	}

	return tlsCfg, nil
}

// ServerHandshake wraps conn with TLS and completes the handshake within timeout.
// On failure the returned error is the handshake error and conn is left to the caller.
func ServerHandshake(conn net.Conn, tlsCfg *tls.Config, timeout time.Duration, logger *log.Logger) (*tls.Conn, error) {
	logger.VerboseMsg("Starting TLS handshake with %s", conn.RemoteAddr())

	tlsConn := tls.Server(conn, tlsCfg)

	if timeout > 0 {
		_ = tlsConn.SetDeadline(time.Now().Add(timeout))
	}

	err := tlsConn.Handshake()

	// a lingering deadline would kill the connection later
	if timeout > 0 {
		_ = tlsConn.SetDeadline(time.Time{})
	}

	if err != nil {
		logger.VerboseMsg("TLS server handshake with %s failed: %v", conn.RemoteAddr(), err)
		return nil, err
	}

	logger.VerboseMsg("TLS handshake completed with %s", conn.RemoteAddr())
	return tlsConn, nil
}
