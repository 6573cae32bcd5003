package listeners

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SafetyApp/internal/models"
	"SafetyApp/pkg/location"
)

func TestInitLocationListenerStatic(t *testing.T) {
	holder := location.NewHolder()
	require.NoError(t, InitLocationListener(location.StaticProvider{Fix: location.Fix{Lat: 1, Lon: 2}}, holder))
	assert.Equal(t, models.Location{Lat: 1, Lng: 2}, holder.Current())
}

func TestInitLocationListenerReplay(t *testing.T) {
	holder := location.NewHolder()
	p := &location.ReplayProvider{
		Track:    []location.Fix{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
		Interval: 5 * time.Millisecond,
	}
	require.NoError(t, InitLocationListener(p, holder))
	defer p.Stop()

	assert.Eventually(t, func() bool {
		return holder.Current() == models.Location{Lat: 2, Lng: 2}
	}, time.Second, 5*time.Millisecond)
}

func TestInitLocationListenerPropagatesStartError(t *testing.T) {
	holder := location.NewHolder()
	assert.Error(t, InitLocationListener(&location.ReplayProvider{}, holder))
	assert.Equal(t, models.FallbackLocation, holder.Current())
}
