package knowledge_test

import (
	"testing"

	"github.com/aescanero/dago-chat-gateway/internal/knowledge"
	"github.com/m-mizutani/gt"
)

func TestEncodeKey(t *testing.T) {
	gt.Equal(t, knowledge.EncodeKey("12345678"), "MTIzNDU2Nzg")
	gt.Equal(t, knowledge.EncodeKey("TR-0042"), "VFItMDA0Mg")
	gt.Equal(t, knowledge.EncodeKey(""), "")
}

func TestDecodeKey(t *testing.T) {
	testCases := []struct {
		name    string
		encoded string
		want    string
	}{
		{"missing one pad", "MTIzNDU2Nzg", "12345678"},
		{"missing two pads", "VFItMDA0Mg", "TR-0042"},
		{"already padded", "MTIzNDU2Nzg=", "12345678"},
		{"utf8", "w6Q", "ä"},
		{"empty", "", "Not Available"},
		{"not base64", "!!not-base64!!", "!!not-base64!!"},
		{"invalid utf8", "//79", "//79"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, knowledge.DecodeKey(tc.encoded), tc.want)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, key := range []string{"1", "12", "123", "1234", "12345678", "0000 0001"} {
		gt.Equal(t, knowledge.DecodeKey(knowledge.EncodeKey(key)), key)
	}
}

func TestIsReserved(t *testing.T) {
	gt.True(t, knowledge.IsReserved("@search.score"))
	gt.True(t, knowledge.IsReserved("metadata_storage_path"))
	gt.True(t, knowledge.IsReserved("AzureSearch_DocumentKey"))
	gt.False(t, knowledge.IsReserved("id"))
	gt.False(t, knowledge.IsReserved("azuresearch_lower"))
}

func TestSummary(t *testing.T) {
	rec := knowledge.Record{Fields: []knowledge.Field{
		{Name: "id", Value: "X"},
		{Name: "elo_transport", Value: knowledge.EncodeKey("12345678")},
		{Name: "@search.score", Value: 0.9},
		{Name: "carrier", Value: nil},
		{Name: "metadata_storage_name", Value: "file.csv"},
		{Name: "weight", Value: 12.5},
		{Name: "status", Value: "delivered"},
	}}

	gt.Equal(t, rec.Summary(), "id: X, elo_transport: 12345678, weight: 12.5, status: delivered")
}

func TestSummaryKeepsMalformedTransport(t *testing.T) {
	rec := knowledge.Record{Fields: []knowledge.Field{
		{Name: "elo_transport", Value: "%%%"},
	}}
	gt.Equal(t, rec.Summary(), "elo_transport: %%%")
}

func TestSummaryNullTransport(t *testing.T) {
	rec := knowledge.Record{Fields: []knowledge.Field{
		{Name: "id", Value: "7"},
		{Name: "elo_transport", Value: nil},
	}}
	gt.Equal(t, rec.Summary(), "id: 7, elo_transport: Not Available")
}

func TestBanner(t *testing.T) {
	rec := knowledge.Record{Fields: []knowledge.Field{{Name: "id", Value: "X"}}}
	banner := knowledge.Banner(rec)
	gt.S(t, banner).Contains("--- Context from knowledge base")
	gt.S(t, banner).Contains("Record found: id: X")
	gt.S(t, banner).Contains("---------------------------------")
}
