package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/chaingrid/internal/datasource"
	"github.com/vk/chaingrid/internal/node"
)

func resolver(t *testing.T) *datasource.Resolver {
	t.Helper()
	r, err := datasource.NewResolver("http://api.test")
	require.NoError(t, err)
	return r
}

func TestDecode_DataTemplate(t *testing.T) {
	tpl, err := Decode(TransferType, `{"type":"dataNode","label":"GET Data","method":"GET","endpoint":""}`)
	require.NoError(t, err)

	assert.Equal(t, node.KindDataRequest, tpl.Type)
	assert.Equal(t, "GET Data", tpl.Label)

	p, err := tpl.Payload(resolver(t))
	require.NoError(t, err)
	d := p.(*node.DataRequestData)
	assert.Equal(t, "GET", d.Method)
	assert.Empty(t, d.Endpoint)
}

func TestDecode_Rejects(t *testing.T) {
	testCases := []struct {
		name         string
		transferType string
		payload      string
	}{
		{name: "wrong transfer type", transferType: "text/plain", payload: `{"type":"codeNode","label":"x","code":"pass"}`},
		{name: "not json", transferType: TransferType, payload: `not json`},
		{name: "unknown type", transferType: TransferType, payload: `{"type":"videoNode","label":"x"}`},
		{name: "missing label", transferType: TransferType, payload: `{"type":"conditionalNode"}`},
		{name: "code without script", transferType: TransferType, payload: `{"type":"codeNode","label":"Print"}`},
		{name: "bad method", transferType: TransferType, payload: `{"type":"dataNode","label":"x","method":"FETCH"}`},
		{name: "bad category", transferType: TransferType, payload: `{"type":"dataNode","label":"x","dataSourceCategory":"crypto"}`},
		{name: "wrong field type", transferType: TransferType, payload: `{"type":"codeNode","label":"x","code":5}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.transferType, tc.payload)
			require.Error(t, err)
			assert.True(t, node.IsStructural(err), "want structural error, got %v", err)
		})
	}
}

func TestPayload_DerivesEndpointFromCategory(t *testing.T) {
	tpl := &Template{Type: node.KindDataRequest, Label: "Quote", Method: "get", Category: "stock", Ticker: "AAPL", Endpoint: "ignored"}
	require.NoError(t, tpl.Validate())

	p, err := tpl.Payload(resolver(t))
	require.NoError(t, err)
	d := p.(*node.DataRequestData)
	assert.Equal(t, "GET", d.Method)
	assert.Equal(t, "http://api.test/quote/AAPL", d.Endpoint)
}

func TestCatalog_RoundTrips(t *testing.T) {
	for _, tpl := range Catalog() {
		t.Run(tpl.Label, func(t *testing.T) {
			require.NoError(t, tpl.Validate())

			encoded, err := tpl.Encode()
			require.NoError(t, err)

			decoded, err := Decode(TransferType, encoded)
			require.NoError(t, err)
			assert.Equal(t, tpl, *decoded)

			p, err := decoded.Payload(resolver(t))
			require.NoError(t, err)
			assert.Equal(t, tpl.Type, p.Kind())
		})
	}
}
