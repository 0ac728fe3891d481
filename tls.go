package burl

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tlsFileConfig is the on-disk shape accepted by LoadTLSConfig.
type tlsFileConfig struct {
	CAFiles    []string `yaml:"ca_files"`
	CertFile   string   `yaml:"cert_file"`
	KeyFile    string   `yaml:"key_file"`
	ServerName string   `yaml:"server_name"`
	Insecure   bool     `yaml:"insecure_skip_verify"`
}

// LoadTLSConfig reads a YAML trust-store/client-certificate
// description from path and builds a *tls.Config suitable for
// WithTLSConfig. This is the one piece of Session configuration that
// comes from a file rather than functional options, since trust
// material is ops-owned and rotated independently of the binary.
func LoadTLSConfig(path string) (*tls.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc tlsFileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("burl: parsing tls config %s: %w", path, err)
	}

	cfg := &tls.Config{
		ServerName:         fc.ServerName,
		InsecureSkipVerify: fc.Insecure,
	}

	if len(fc.CAFiles) > 0 {
		pool := x509.NewCertPool()
		for _, caFile := range fc.CAFiles {
			pem, err := os.ReadFile(caFile)
			if err != nil {
				return nil, err
			}
			if !pool.AppendCertsFromPEM(pem) {
				return nil, fmt.Errorf("burl: no certificates parsed from %s", caFile)
			}
		}
		cfg.RootCAs = pool
	}

	if fc.CertFile != "" && fc.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(fc.CertFile, fc.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}
