package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
	"github.com/spiffe/go-spiffe/v2/workloadapi"
	"go.uber.org/zap"
)

type TLSConfig struct {
	TLSEnabled bool   `envconfig:"TLS_ENABLED" default:"false"`
	SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

// Provider serves SPIRE-issued SVIDs to the HTTP server. The Workload API
// rotates certificates in the background; Watch only reports their status.
type Provider struct {
	source *workloadapi.X509Source
	logger *zap.Logger
}

// NewProvider returns nil with no error when TLS is disabled.
func NewProvider(ctx context.Context, cfg TLSConfig, logger *zap.Logger) (*Provider, error) {
	if !cfg.TLSEnabled {
		logger.Info("TLS is disabled")
		return nil, nil
	}

	source, err := workloadapi.NewX509Source(
		ctx,
		workloadapi.WithClientOptions(
			workloadapi.WithAddr(cfg.SocketPath),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create X509Source: %w", err)
	}

	logger.Info("SPIRE TLS configuration loaded",
		zap.String("socket_path", cfg.SocketPath),
		zap.Bool("mtls_enabled", true))

	return &Provider{source: source, logger: logger}, nil
}

func (p *Provider) ServerConfig() *tls.Config {
	tlsConfig := tlsconfig.MTLSServerConfig(p.source, p.source, tlsconfig.AuthorizeAny())
	tlsConfig.MinVersion = tls.VersionTLS12
	return tlsConfig
}

func (p *Provider) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svid, err := p.source.GetX509SVID()
			if err != nil {
				p.logger.Error("Failed to get X509 SVID", zap.Error(err))
				continue
			}

			p.logger.Info("Certificate status",
				zap.String("spiffe_id", svid.ID.String()),
				zap.Time("expiry", svid.Certificates[0].NotAfter),
				zap.Duration("ttl", time.Until(svid.Certificates[0].NotAfter)))
		}
	}
}

func (p *Provider) Close() error {
	if p == nil || p.source == nil {
		return nil
	}
	return p.source.Close()
}
