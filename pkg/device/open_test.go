package device

import (
	"testing"

	"github.com/itohio/usbscope/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Transport = config.TransportMock

	dev, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, dev)
	assert.NoError(t, dev.Close())

	cfg.Device.Transport = config.TransportReplay
	_, err = Open(cfg)
	assert.Error(t, err, "replay without a path")

	cfg.Device.Transport = "carrier-pigeon"
	_, err = Open(cfg)
	assert.ErrorContains(t, err, "unknown transport")
}
