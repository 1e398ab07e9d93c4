package network

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/snow884/tiramisu-wallet-client/internal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

const defaultTimeout = 30 * time.Second

// GetClient returns the http client used to talk to the wallet backend,
// dialing through the configured SOCKS5 proxy if there is one.
func GetClient(cfg internal.NetworkConfiguration) (*http.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := http.Client{
		Timeout: timeout,
	}
	if cfg.SocksProxy == nil || cfg.SocksProxy.Host == "" {
		return &client, nil
	}
	var auth *proxy.Auth
	if cfg.SocksProxy.Username != "" && cfg.SocksProxy.Password != "" {
		auth = &proxy.Auth{User: cfg.SocksProxy.Username, Password: cfg.SocksProxy.Password}
	}
	d, err := proxy.SOCKS5("tcp", cfg.SocksProxy.Host, auth, &net.Dialer{
		Timeout:   20 * time.Second,
		KeepAlive: -1,
	})
	if err != nil {
		return nil, err
	}
	specialTransport := &http.Transport{}
	if cd, ok := d.(proxy.ContextDialer); ok {
		specialTransport.DialContext = cd.DialContext
	} else {
		specialTransport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return d.Dial(network, addr)
		}
	}
	client.Transport = specialTransport
	log.Infof("[Network] Using SOCKS5 proxy %s", cfg.SocksProxy.Host)
	return &client, nil
}
