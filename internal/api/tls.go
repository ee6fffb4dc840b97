package api

import (
	"crypto/tls"
	"fmt"
	"os"
)

// TLSConfig holds the certificate and key paths.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS reads CYCLIST_TLS_CERT and CYCLIST_TLS_KEY. TLS is enabled only
// when both are set.
func InitTLS() {
	cert, key := os.Getenv("CYCLIST_TLS_CERT"), os.Getenv("CYCLIST_TLS_KEY")
	if cert == "" || key == "" {
		tlsConfig = nil
		return
	}
	tlsConfig = &TLSConfig{CertFile: cert, KeyFile: key}
}

// IsTLSEnabled returns true if TLS is configured.
func IsTLSEnabled() bool {
	return tlsConfig != nil
}

// GetTLSConfig returns the current TLS configuration (may be nil).
func GetTLSConfig() *TLSConfig {
	return tlsConfig
}

// LoadTLSConfig loads the key pair. It returns nil, nil when TLS is not
// configured and an error when the configured pair cannot be read.
func LoadTLSConfig() (*tls.Config, error) {
	if !IsTLSEnabled() {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// SetTLSConfigForTest allows tests to set TLS config directly.
func SetTLSConfigForTest(cfg *TLSConfig) {
	tlsConfig = cfg
}
