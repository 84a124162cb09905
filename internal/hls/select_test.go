package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMaster() *MasterPlaylist {
	return &MasterPlaylist{
		Variants: []Variant{
			{URI: "low", Bandwidth: 500000, Width: 426, Height: 240, HasRes: true},
			{URI: "mid", Bandwidth: 1500000, Width: 1280, Height: 720, HasRes: true},
			{URI: "high", Bandwidth: 3000000, Width: 1920, Height: 1080, HasRes: true},
		},
	}
}

func TestSelectVariantExactResolution(t *testing.T) {
	v, err := SelectVariant(sampleMaster(), Preference{Width: 1280, Height: 720, HasResolution: true})
	require.NoError(t, err)
	assert.Equal(t, "mid", v.URI)
}

func TestSelectVariantResolutionCeiling(t *testing.T) {
	v, err := SelectVariant(sampleMaster(), Preference{Width: 1000, Height: 480, HasResolution: true})
	require.NoError(t, err)
	assert.Equal(t, "low", v.URI)
}

func TestSelectVariantByBandwidth(t *testing.T) {
	v, err := SelectVariant(sampleMaster(), Preference{Bandwidth: 2000000, HasBandwidth: true})
	require.NoError(t, err)
	assert.Equal(t, "mid", v.URI)
}

func TestSelectVariantBandwidthBelowAllFallsBackToLowest(t *testing.T) {
	v, err := SelectVariant(sampleMaster(), Preference{Bandwidth: 100, HasBandwidth: true})
	require.NoError(t, err)
	assert.Equal(t, "low", v.URI)
}

func TestSelectVariantNoPreferencePicksHighestBandwidth(t *testing.T) {
	v, err := SelectVariant(sampleMaster(), Preference{})
	require.NoError(t, err)
	assert.Equal(t, "high", v.URI)
}

func TestSelectVariantIsDeterministic(t *testing.T) {
	m := sampleMaster()
	pref := Preference{Width: 1280, Height: 720, HasResolution: true}
	first, err := SelectVariant(m, pref)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := SelectVariant(m, pref)
		require.NoError(t, err)
		assert.Equal(t, first.URI, again.URI)
	}
}

func TestSelectVariantEmptyMasterIsNoVariantError(t *testing.T) {
	_, err := SelectVariant(&MasterPlaylist{}, Preference{})
	assert.Error(t, err)
}
