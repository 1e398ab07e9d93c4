package network

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snow884/tiramisu-wallet-client/internal"
)

func TestGetClientDirect(t *testing.T) {
	client, err := GetClient(internal.NetworkConfiguration{})
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, client.Timeout)
	assert.Nil(t, client.Transport)

	client, err = GetClient(internal.NetworkConfiguration{Timeout: 5 * time.Second, SocksProxy: &internal.SocksConfiguration{}})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.Nil(t, client.Transport)
}

func TestGetClientSocksProxy(t *testing.T) {
	client, err := GetClient(internal.NetworkConfiguration{SocksProxy: &internal.SocksConfiguration{
		Host:     "127.0.0.1:9050",
		Username: "tor",
		Password: "tor",
	}})
	require.NoError(t, err)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.DialContext)
}
