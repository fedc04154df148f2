package connectjson

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/rpc"
)

func TestMarshalKeepsPromptMarkup(t *testing.T) {
	data, err := Codec{}.Marshal(&rpc.RefineRequest{Prompt: "render <div> & style it"})
	require.NoError(t, err)
	require.Equal(t, `{"prompt":"render <div> & style it"}`, string(data))
}

func TestUnmarshalEmptyBody(t *testing.T) {
	var req rpc.RefineRequest
	require.NoError(t, Codec{}.Unmarshal(nil, &req))
	require.Empty(t, req.Prompt)

	require.NoError(t, Codec{}.Unmarshal([]byte(`{"prompt":"q","model_name":"gpt-4o"}`), &req))
	require.Equal(t, "gpt-4o", req.ModelName)
}

func TestName(t *testing.T) {
	require.Equal(t, "json", Codec{}.Name())
}
