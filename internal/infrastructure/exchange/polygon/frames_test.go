package polygon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrameObjectEqualsSingletonArray(t *testing.T) {
	obj := []byte(`{"ev":"T","sym":"AAPL","p":187.32,"v":60000,"c":[2,14],"t":1700000000000}`)
	arr := []byte(" [" + string(obj) + "]\n")

	a, err := DecodeFrame(obj)
	require.NoError(t, err)
	b, err := DecodeFrame(arr)
	require.NoError(t, err)

	require.Len(t, a, 1)
	assert.Equal(t, a, b)
	assert.Equal(t, KindTrade, a[0].Kind)
	assert.Equal(t, "AAPL", a[0].Trade.Symbol)
	assert.Equal(t, "187.32", a[0].Trade.Price.String())
	assert.Equal(t, int64(60000), a[0].Trade.Volume)
	assert.Equal(t, []int{2, 14}, a[0].Trade.Conditions)
}

func TestDecodeFrameTaggedVariants(t *testing.T) {
	frame := []byte(`[
		{"ev":"status","status":"auth_success","message":"authenticated"},
		{"ev":"T","sym":"MSFT","p":410.1,"s":120},
		{"ev":"AM","sym":"MSFT"},
		{"ev":"T","p":1}
	]`)
	msgs, err := DecodeFrame(frame)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, KindStatus, msgs[0].Kind)
	assert.Equal(t, "auth_success", msgs[0].Status.Status)

	assert.Equal(t, KindTrade, msgs[1].Kind)
	assert.Equal(t, int64(120), msgs[1].Trade.Volume, "size is used when volume is absent")
	assert.Empty(t, msgs[1].Trade.Conditions)

	assert.Equal(t, KindUnknown, msgs[2].Kind)
	assert.NoError(t, msgs[2].Err)

	assert.Equal(t, KindUnknown, msgs[3].Kind)
	assert.Error(t, msgs[3].Err)
}

func TestDecodeFrameMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "garbage", `{"ev":"T"`, `[{"ev":"T"},`, `"str"`} {
		_, err := DecodeFrame([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestDecodeFrameBadElementKeepsOthers(t *testing.T) {
	msgs, err := DecodeFrame([]byte(`[{"ev":"T","sym":"A","v":"lots"},{"ev":"T","sym":"B","v":1}]`))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, KindUnknown, msgs[0].Kind)
	assert.Error(t, msgs[0].Err)
	assert.Equal(t, KindTrade, msgs[1].Kind)
}
