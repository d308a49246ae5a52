package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAdvertisement() Advertisement {
	return Advertisement{
		ID:           "com.example.audiobooks",
		Name:         "Audiobooks",
		Version:      "3.1.0",
		ManifestPath: "/manifest.json",
	}
}

func TestAdvertisement_TXTRecords(t *testing.T) {
	ad := testAdvertisement()
	assert.Equal(t, []string{
		"id=com.example.audiobooks",
		"name=Audiobooks",
		"version=3.1.0",
		"manifest=/manifest.json",
	}, ad.txtRecords())

	ad.BaseURL = "https://addon.example"
	assert.Contains(t, ad.txtRecords(), "url=https://addon.example")
}

func TestServiceStart_Rejects(t *testing.T) {
	service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	err := service.Start(Advertisement{}, 7000)
	require.Error(t, err)

	err = service.Start(testAdvertisement(), 0)
	require.Error(t, err)
	assert.Nil(t, service.server)
}

func TestServiceStop(t *testing.T) {
	service := NewService(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	// Not started, repeated.
	service.Stop()
	service.Stop()
	assert.Nil(t, service.server)
}

func TestServiceLifecycle(t *testing.T) {
	// Multicast is often missing in containers and CI.
	var buf bytes.Buffer
	service := NewService(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := service.Start(testAdvertisement(), 7000); err != nil {
		t.Skipf("mDNS not available: %v", err)
	}
	assert.NotNil(t, service.server)
	assert.Contains(t, buf.String(), "mDNS advertisement started")

	require.NoError(t, service.Start(testAdvertisement(), 7001))
	assert.NotNil(t, service.server)

	done := make(chan struct{})
	for range 5 {
		go func() {
			service.Stop()
			done <- struct{}{}
		}()
	}
	for range 5 {
		<-done
	}
	assert.Nil(t, service.server)
	assert.Contains(t, buf.String(), "mDNS advertisement stopped")
}
