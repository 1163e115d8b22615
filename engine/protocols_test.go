package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_bundledProtocols(t *testing.T) {
	cams, err := LoadConfig("../protocols/cams.yaml")
	require.NoError(t, err)
	assert.Equal(t, ParadigmCAMS, cams.Paradigm)
	assert.Equal(t, 4, cams.NumStimuli())
	assert.True(t, cams.Display.Fullscreen)

	ss, err := LoadConfig("../protocols/ssmvep.yaml")
	require.NoError(t, err)
	assert.Equal(t, ParadigmSSMVEP, ss.Paradigm)
	assert.Equal(t, DefaultGeometry(), ss.Geometry)
	assert.Equal(t, 300, ss.Frames(ss.StimulationPeriod))
}
