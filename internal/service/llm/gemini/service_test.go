package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestToAnswer(t *testing.T) {
	testCases := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
		in   int
		out  int
	}{
		{
			name: "多段文本",
			resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}}},
				},
				UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 3},
			},
			want: "a\nb",
			in:   10,
			out:  3,
		},
		{
			name: "无候选",
			resp: &genai.GenerateContentResponse{},
			want: "",
		},
		{
			name: "候选无内容",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			want: "",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := toAnswer(tc.resp)
			assert.Equal(t, tc.want, got.Content)
			assert.Equal(t, tc.in, got.InputToken)
			assert.Equal(t, tc.out, got.OutputToken)
		})
	}
}
