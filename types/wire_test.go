package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacket(t *testing.T) {
	p, err := DecodePacket("MS#chat#<num>1 <and> <percent>#%")
	require.NoError(t, err)
	assert.Equal(t, "MS", p.Header)
	assert.Equal(t, []string{"chat", "#1 & %"}, p.Args)

	p, err = DecodePacket("CT##hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "hello"}, p.Args)
	assert.Equal(t, "", p.Arg(0))
	assert.Equal(t, "", p.Arg(5))

	p, err = DecodePacket("CH#%")
	require.NoError(t, err)
	assert.Empty(t, p.Args)

	for _, raw := range []string{"", "#%", "%", "#a#%"} {
		_, err = DecodePacket(raw)
		assert.Equal(t, ErrMalformedPacket, err, raw)
	}
}

func TestEncodePacket(t *testing.T) {
	assert.Equal(t, "CT#a<num>b#100<percent> <dollar>5#%", NewPacket("CT", "a#b", "100% $5").Encode())
	assert.Equal(t, "DONE#%", NewPacket("DONE").Encode())
	assert.Equal(t, "LE#a&b&c#%", NewRawPacket("LE", "a&b&c").Encode())
	assert.Equal(t, "LE#a<and>b#%", NewPacket("LE", "a&b").Encode())
}

func TestSplitFrames(t *testing.T) {
	assert.Equal(t, []string{"HI#abc#%", "ID#AO2#2.9#%"}, SplitFrames("HI#abc#%ID#AO2#2.9#%\n"))
	assert.Empty(t, SplitFrames(" \n"))
}
