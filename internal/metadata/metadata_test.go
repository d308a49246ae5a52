package metadata

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"1:02:03", ptr(3723)},
		{"12:34", ptr(754)},
		{"95", ptr(95)},
		{" 0:00:01 ", ptr(1)},
		{"", nil},
		{"a:bc", nil},
		{"1::2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseClock(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "1:02:03", FormatClock(3723))
	assert.Equal(t, "12:34", FormatClock(754))
	assert.Equal(t, "0:05", FormatClock(5.9))
	assert.Equal(t, "", FormatClock(0))
}

func TestIsMP3URL(t *testing.T) {
	assert.True(t, IsMP3URL("https://archive.org/download/x/a_01.mp3"))
	assert.True(t, IsMP3URL("https://archive.org/download/x/A_01.MP3?dl=1"))
	assert.False(t, IsMP3URL("https://archive.org/download/x/a.mp3.zip"))
	assert.False(t, IsMP3URL("https://archive.org/download/x/a.ogg"))
}

func TestNumber_Unmarshal(t *testing.T) {
	var doc struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
		E Number `json:"e"`
	}
	err := json.Unmarshal([]byte(`{"a": 12.5, "b": "42", "c": null, "d": "n/a", "e": {"x":1}}`), &doc)
	require.NoError(t, err)

	require.NotNil(t, doc.A.Ptr())
	assert.InDelta(t, 12.5, *doc.A.Ptr(), 0.0001)
	require.NotNil(t, doc.B.IntPtr())
	assert.Equal(t, 42, *doc.B.IntPtr())
	assert.Nil(t, doc.C.Ptr())
	assert.Nil(t, doc.D.Ptr())
	assert.Nil(t, doc.E.Ptr())
}

func TestText_Unmarshal(t *testing.T) {
	var doc struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a": " 47 ", "b": 47, "c": null}`), &doc)
	require.NoError(t, err)

	assert.Equal(t, "47", doc.A.String())
	assert.Equal(t, "47", doc.B.String())
	assert.Equal(t, "", doc.C.String())
}

func TestHTMLToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", HTMLToMarkdown("  plain text "))
	assert.Equal(t, "**bold** move", HTMLToMarkdown("<p><strong>bold</strong> move</p>"))
	assert.Equal(t, "", HTMLToMarkdown(""))
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world & more", StripHTML("<p>Hello <b>world</b></p> &amp; more"))
	assert.Equal(t, "", StripHTML(""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Chapter 1 & 2", CleanText("<![CDATA[ Chapter 1 &amp; 2 ]]>"))
	assert.Equal(t, "Intro", CleanText("  Intro\n"))
}

func ptr(v float64) *float64 { return &v }
