package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCall(t *testing.T) {
	t.Parallel()

	body, err := marshalCall("portal.startExperiment", map[string]string{
		"proj":    "TestProj",
		"name":    "exp-abc1234",
		"profile": "TestProj,test-profile",
	})
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "<methodName>portal.startExperiment</methodName>")
	assert.Contains(t, s, "<double>0.1</double>")
	assert.Contains(t, s, "<name>proj</name><value><string>TestProj</string></value>")
	assert.Contains(t, s, "<name>profile</name><value><string>TestProj,test-profile</string></value>")

	// Members are emitted in sorted order so request bodies are stable.
	nameIdx := indexOf(s, "<name>name</name>")
	profileIdx := indexOf(s, "<name>profile</name>")
	projIdx := indexOf(s, "<name>proj</name>")
	assert.Less(t, nameIdx, profileIdx)
	assert.Less(t, profileIdx, projIdx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestUnmarshalResponse(t *testing.T) {
	t.Parallel()

	data := []byte(`<?xml version="1.0"?>
<methodResponse><params><param><value><struct>
  <member><name>code</name><value><int>0</int></value></member>
  <member><name>value</name><value><i4>0</i4></value></member>
  <member><name>output</name><value><string>Status: ready
</string></value></member>
</struct></value></param></params></methodResponse>`)

	resp, err := unmarshalResponse(data)
	require.NoError(t, err)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "Status: ready\n", resp.Output)
	assert.Equal(t, 0, resp.Value)
	assert.True(t, resp.Success())
}

func TestUnmarshalResponse_UntypedOutput(t *testing.T) {
	t.Parallel()

	// Some portal responses carry the output as a bare value with no
	// type element; XML-RPC treats an untyped value as a string.
	data := []byte(`<?xml version="1.0"?>
<methodResponse><params><param><value><struct>
  <member><name>code</name><value><int>12</int></value></member>
  <member><name>output</name><value>No such experiment</value></member>
</struct></value></param></params></methodResponse>`)

	resp, err := unmarshalResponse(data)
	require.NoError(t, err)
	assert.Equal(t, CodeSearchFailed, resp.Code)
	assert.Equal(t, "No such experiment", resp.Output)
	assert.False(t, resp.Success())
}

func TestUnmarshalResponse_NestedValue(t *testing.T) {
	t.Parallel()

	data := []byte(`<?xml version="1.0"?>
<methodResponse><params><param><value><struct>
  <member><name>code</name><value><int>0</int></value></member>
  <member><name>value</name><value><struct>
    <member><name>ready</name><value><boolean>1</boolean></value></member>
    <member><name>aggregates</name><value><array><data>
      <value><string>emulab.net</string></value>
      <value><string>utah.cloudlab.us</string></value>
    </data></array></value></member>
  </struct></value></member>
</struct></value></param></params></methodResponse>`)

	resp, err := unmarshalResponse(data)
	require.NoError(t, err)

	val, ok := resp.Value.(map[string]any)
	require.True(t, ok, "value should decode to a map, got %T", resp.Value)
	assert.Equal(t, true, val["ready"])
	assert.Equal(t, []any{"emulab.net", "utah.cloudlab.us"}, val["aggregates"])
}

func TestUnmarshalResponse_Fault(t *testing.T) {
	t.Parallel()

	data := []byte(`<?xml version="1.0"?>
<methodResponse><fault><value><struct>
  <member><name>faultCode</name><value><int>4</int></value></member>
  <member><name>faultString</name><value><string>bad version</string></value></member>
</struct></value></fault></methodResponse>`)

	_, err := unmarshalResponse(data)
	require.Error(t, err)

	var fault *Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, 4, fault.Code)
	assert.Equal(t, "bad version", fault.String)
}

func TestUnmarshalResponse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{name: "not xml", data: "this is not xml"},
		{name: "no params", data: "<methodResponse></methodResponse>"},
		{name: "non-struct envelope", data: "<methodResponse><params><param><value><string>hi</string></value></param></params></methodResponse>"},
		{name: "missing code", data: "<methodResponse><params><param><value><struct><member><name>output</name><value><string>x</string></value></member></struct></value></param></params></methodResponse>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := unmarshalResponse([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestValueDecode_Scalars(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	tests := []struct {
		name string
		val  value
		want any
	}{
		{name: "string", val: value{Str: str("hello")}, want: "hello"},
		{name: "int", val: value{Int: str(" 42 ")}, want: 42},
		{name: "i4", val: value{I4: str("-7")}, want: -7},
		{name: "double", val: value{Double: str("0.5")}, want: 0.5},
		{name: "bool true", val: value{Boolean: str("1")}, want: true},
		{name: "bool false", val: value{Boolean: str("false")}, want: false},
		{name: "nil", val: value{Nil: &struct{}{}}, want: nil},
		{name: "untyped", val: value{Chardata: "bare"}, want: "bare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.val.decode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueDecode_Invalid(t *testing.T) {
	t.Parallel()

	str := func(s string) *string { return &s }

	for _, val := range []value{
		{Int: str("notanint")},
		{Double: str("x")},
		{Boolean: str("maybe")},
	} {
		_, err := val.decode()
		require.Error(t, err)
	}
}
