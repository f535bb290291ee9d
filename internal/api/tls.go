package api

import (
	"crypto/tls"
	"fmt"
	"log"

	"github.com/AaronLay10/ArcEngine/internal/config"
)

// TLSConfig holds the certificate and key paths.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

var tlsConfig *TLSConfig

// InitTLS reads ARC_TLS_CERT and ARC_TLS_KEY (each supporting *_FILE).
// TLS is enabled only when both are set.
func InitTLS() error {
	certFile, err := config.ResolveSecret("ARC_TLS_CERT")
	if err != nil {
		return fmt.Errorf("failed to resolve ARC_TLS_CERT: %w", err)
	}
	keyFile, err := config.ResolveSecret("ARC_TLS_KEY")
	if err != nil {
		return fmt.Errorf("failed to resolve ARC_TLS_KEY: %w", err)
	}

	tlsConfig = nil
	if certFile != "" && keyFile != "" {
		tlsConfig = &TLSConfig{CertFile: certFile, KeyFile: keyFile}
	}
	return nil
}

// IsTLSEnabled returns true if TLS is configured.
func IsTLSEnabled() bool {
	return tlsConfig != nil && tlsConfig.CertFile != "" && tlsConfig.KeyFile != ""
}

// GetTLSConfig returns the current TLS configuration (may be nil).
func GetTLSConfig() *TLSConfig {
	return tlsConfig
}

// LoadTLSConfig loads a tls.Config from the cert and key files.
// Returns nil and logs an error if loading fails.
func LoadTLSConfig() *tls.Config {
	if !IsTLSEnabled() {
		return nil
	}

	cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		log.Printf("failed to load TLS certificate: %v", err)
		return nil
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
}

// SetTLSConfigForTest allows tests to set TLS config directly.
func SetTLSConfigForTest(cfg *TLSConfig) {
	tlsConfig = cfg
}
