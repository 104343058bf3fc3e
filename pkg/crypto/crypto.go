// Package crypto provides the TLS material of the echo server: certificates
// loaded from PEM files or generated on the fly, optionally derived from a
// shared secret so that both ends of a mutually authenticated connection
// agree on the same CA.
package crypto

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// GenerateCertificates returns a CA pool and a leaf certificate signed by that CA.
// The CA is derived deterministically from seed. An empty seed uses a random one,
// which yields a throwaway certificate for encryption without authentication.
func GenerateCertificates(seed string) (*x509.CertPool, tls.Certificate, error) {
	var caCert *x509.CertPool
	var cert tls.Certificate
	var err error

	if seed == "" {
		seed, err = GenerateRandomString(32)
		if err != nil {
			return caCert, cert, fmt.Errorf("GenerateRandomString(32): %s", err)
		}
	}

	caKeyPEM, caCertPEM, err := generateKeyPair(seed)
	if err != nil {
		return caCert, cert, fmt.Errorf("generateKeyPair(seed): %s", err)
	}

	caCert = x509.NewCertPool()
	caCert.AppendCertsFromPEM(caCertPEM)

	cert, err = generateCertificate(caCertPEM, caKeyPEM)
	if err != nil {
		return caCert, cert, fmt.Errorf("generateCertificate(cert, key): %s", err)
	}

	return caCert, cert, nil
}

// LoadCertificate reads a PEM encoded certificate chain and its private key.
func LoadCertificate(certFile, keyFile string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading certificate: %w", err)
	}

	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading certificate key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tls.X509KeyPair(%s, %s): %w", certFile, keyFile, err)
	}

	return cert, nil
}
