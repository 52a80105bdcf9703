package scene

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestManifestYAMLRoundTrip(t *testing.T) {
	sc := randomScene(rand.New(rand.NewSource(4)), 3, 5)
	m := sc.Export().Manifest()
	require.NoError(t, m.Validate())

	data, err := yaml.Marshal(m)
	require.NoError(t, err)

	decoded := &Manifest{}
	require.NoError(t, yaml.Unmarshal(data, decoded))
	require.NoError(t, decoded.Validate())

	assert.Equal(t, m.Entries, decoded.Entries)
	assert.Equal(t, m.MeshOptions, decoded.MeshOptions)
	assert.Equal(t, m.Camera.Position, decoded.Camera.Position)
	assert.Equal(t, m.Camera.FOV, decoded.Camera.FOV)
	assert.Equal(t, 15, decoded.Entry(TrianglesFile).Count)
}

func TestManifestValidate(t *testing.T) {
	sc := randomScene(rand.New(rand.NewSource(4)), 2, 5)

	type spec struct {
		mutate func(m *Manifest)
		expErr string
	}

	specs := []spec{
		{func(m *Manifest) { m.Version = 2 }, "unsupported archive version"},
		{func(m *Manifest) { m.Entries[0].RecordSize = 16 }, "has record size 16"},
		{func(m *Manifest) { m.Entries = m.Entries[1:] }, "missing entry"},
		{func(m *Manifest) { m.Entries = append(m.Entries, m.Entries[0]) }, "duplicate entry"},
		{func(m *Manifest) { m.Entries[1].File = "foo.bin" }, "unknown entry"},
		{func(m *Manifest) { m.Entries[2].Count = -1 }, "negative record count"},
		{func(m *Manifest) { m.Entries[5].Count = 100000000000000 }, "at most"},
		{func(m *Manifest) { m.MeshNames = append(m.MeshNames, "extra") }, "mesh names"},
	}

	for index, s := range specs {
		m := sc.Export().Manifest()
		s.mutate(m)
		err := m.Validate()
		require.Error(t, err, "[spec %d]", index)
		assert.True(t, strings.Contains(err.Error(), s.expErr), "[spec %d] expected error to contain %q; got %v", index, s.expErr, err)
	}
}
