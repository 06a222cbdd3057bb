package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackIndex struct {
	IDs      []string `json:"ids"`
	Clusters []int    `json:"clusters,omitempty"`
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)

	assert.Equal(t, "go-json", Default.Name())
}

func TestCodecsAgree(t *testing.T) {
	in := trackIndex{IDs: []string{"rock.00001.wav", "jazz.00002.wav"}, Clusters: []int{3, 0}}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Marshal(in)
			require.NoError(t, err)
			assert.JSONEq(t, `{"ids":["rock.00001.wav","jazz.00002.wav"],"clusters":[3,0]}`, string(b))

			var out trackIndex
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}

	// Bytes written by one codec decode with the other.
	var out trackIndex
	require.NoError(t, JSON{}.Unmarshal(MustMarshal(GoJSON{}, in), &out))
	assert.Equal(t, in, out)
}

func TestMustMarshal(t *testing.T) {
	assert.Equal(t, `{"ids":null}`, string(MustMarshal(nil, trackIndex{})))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
