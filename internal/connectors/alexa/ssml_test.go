package alexa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSSML(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "single line",
			message: "Hello",
			want:    "<speak><p><s>Hello</s></p></speak>",
		},
		{
			name:    "bullets",
			message: "Here are the details:\n- a\n- b",
			want: "<speak><p><s>Here are the details:</s>" +
				"<break time='500ms'/><s>- a</s><break time='500ms'/><s>- b</s></p></speak>",
		},
		{
			name:    "numbered",
			message: "Results:\n1. Pizza & Co\n12. Bar",
			want: "<speak><p><s>Results:</s>" +
				"<break time='500ms'/><s>1.<break time='500ms'/> Pizza and Co</s>" +
				"<break time='500ms'/><s>12.<break time='500ms'/> Bar</s></p></speak>",
		},
		{
			name:    "new paragraph after bullet",
			message: "- first\nSecond",
			want:    "<speak><p><s>- first</s></p><p><s>Second</s></p></speak>",
		},
		{
			name:    "control characters",
			message: "a\tb\n\n",
			want:    "<speak><p><s>ab</s></p></speak>",
		},
		{
			name:    "empty",
			message: "",
			want:    "<speak></speak>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSSML(tt.message))
		})
	}
}

func TestIsNumbered(t *testing.T) {
	assert.True(t, isNumbered("3. Bar"))
	assert.False(t, isNumbered("3 bars"))
	assert.False(t, isNumbered("42"))
	assert.False(t, isNumbered(". x"))
}
