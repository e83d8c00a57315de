package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	id := MakeID(1, 4, 0x0102)
	assert.Equal(t, uint8(1), id.Project())
	assert.Equal(t, uint8(4), id.Class())
	assert.Equal(t, uint16(0x0102), id.Command())
	assert.Equal(t, "0x01040102", id.String())
}

func TestDescriptor(t *testing.T) {
	tests := []struct {
		name     string
		desc     Descriptor
		fullName string
	}{
		{
			name:     "feature class and name",
			desc:     New(MakeID(1, 0, 1), "ardrone3", "Piloting", "TakeOff"),
			fullName: "ardrone3.Piloting.TakeOff",
		},
		{
			name:     "no class",
			desc:     New(MakeID(0, 0, 2), "common", "", "Connected"),
			fullName: "common.Connected",
		},
		{
			name:     "bare name",
			desc:     New(1, "", "", "M1"),
			fullName: "M1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fullName, tt.desc.FullName())
			assert.Equal(t, tt.fullName, tt.desc.String())
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("valid names", func(t *testing.T) {
		for _, name := range []string{"M1", "common.Connected", "ardrone3.Piloting.TakeOff"} {
			d, err := Parse(7, name)
			require.NoError(t, err, name)
			assert.Equal(t, name, d.FullName())
			assert.Equal(t, ID(7), d.ID())
		}
	})

	t.Run("three part name is split", func(t *testing.T) {
		d, err := Parse(1, "ardrone3.Piloting.TakeOff")
		require.NoError(t, err)
		assert.Equal(t, "ardrone3", d.Feature())
		assert.Equal(t, "Piloting", d.Class())
		assert.Equal(t, "TakeOff", d.Name())
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, name := range []string{"", ".", "a..b", "a.b.c.d", "trailing."} {
			_, err := Parse(1, name)
			assert.Error(t, err, name)
		}
	})
}
