package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestPartitionHashBytes(t *testing.T) {
	b := make([]byte, 32)
	b[27] = 0x0B
	assert.Equal(t, uint32(3), PartitionHashBytes(b, 4))
	assert.Equal(t, uint32(0), PartitionHashBytes(b, 1))
	assert.Equal(t, uint32(0), PartitionHashBytes(b[:10], 8))

	for _, mod := range []uint32{3, 5, 7, 12} {
		assert.Less(t, PartitionHashBytes(b, mod), mod)
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	msg, err := structpb.NewStruct(map[string]any{"pool": "abc"})
	require.NoError(t, err)

	data, err := EncodeEvent(7, msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, data[:4])

	var out structpb.Struct
	eventType, err := DecodeEvent(data, &out)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), eventType)
	assert.Equal(t, "abc", out.AsMap()["pool"])

	_, err = DecodeEvent([]byte{1}, &out)
	assert.Error(t, err)
}

func TestGetLocalIP(t *testing.T) {
	assert.NotEmpty(t, GetLocalIP())
}
