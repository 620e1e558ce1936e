package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	in := &Session{
		ID:        "s1",
		AppName:   "legal_agent",
		UserID:    "u1",
		CreatedTs: 10,
		UpdatedTs: 20,
		Events: []*Event{
			{ID: "e1", Author: AuthorUser, InvocationID: "i1", Content: []Part{TextPart("draft a notice")}, Timestamp: 11},
			{ID: "e2", Author: AuthorAgent, InvocationID: "i1", Content: []Part{{
				FunctionCall: &FunctionCall{ID: "c1", Name: "generate_legal_document", Args: `{"doc_type":"notice"}`},
			}}, Timestamp: 12},
			{ID: "e3", Author: AuthorTool, InvocationID: "i1", Content: []Part{{
				FunctionResponse: &FunctionResponse{ID: "c1", Name: "generate_legal_document", Response: "Success!"},
			}}, Timestamp: 13},
			{ID: "e4", Author: AuthorAgent, InvocationID: "i1", Content: []Part{TextPart("Done.")}, Final: true, Timestamp: 14},
		},
	}

	data, err := Codec{}.Encode(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)

	out, err := Codec{Strict: true}.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCodec_Decode(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		data    string
		wantErr bool
	}{
		{"MissingVersionIsV1", false, `{"id":"s1"}`, false},
		{"FutureVersion", false, `{"version":2,"id":"s1"}`, true},
		{"MissingID", false, `{"version":1}`, true},
		{"UnknownFieldLenient", false, `{"version":1,"id":"s1","state":{}}`, false},
		{"UnknownFieldStrict", true, `{"version":1,"id":"s1","state":{}}`, true},
		{"Truncated", false, `{"id":"s1",`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Codec{Strict: tt.strict}.Decode([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s1", s.ID)
			assert.NotNil(t, s.Events)
		})
	}
}

func TestCodec_EncodeNilEvents(t *testing.T) {
	data, err := Codec{}.Encode(&Session{ID: "s1"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"events":[]`)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := &Session{ID: "s", Events: []*Event{{
		Content: []Part{{FunctionCall: &FunctionCall{Name: "a"}}},
	}}}
	c := s.Clone()
	c.Events[0].Content[0].FunctionCall.Name = "b"
	c.Append(&Event{})

	assert.Equal(t, "a", s.Events[0].Content[0].FunctionCall.Name)
	assert.Len(t, s.Events, 1)
}
