package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("E2", "A4")
	assert.Contains(t, p, "lowest comfortable note is E2")
	assert.Contains(t, p, "highest comfortable note is A4")
	assert.Contains(t, p, "Suggest 3 popular songs")
	assert.Contains(t, p, "Suggest 2 vocal exercises")
	assert.Contains(t, p, `"voiceType"`)
}

func TestParseReport(t *testing.T) {
	report, err := ParseReport(reportJSON)
	require.NoError(t, err)

	assert.Equal(t, "Baritone", report.VoiceType)
	assert.Equal(t, "A warm, versatile range.", report.Description)
	require.Len(t, report.Songs, 3)
	assert.Equal(t, Song{Title: "Hallelujah", Artist: "Leonard Cohen", Reason: "Low and steady."}, report.Songs[1])
	require.Len(t, report.Exercises, 2)
	assert.Equal(t, "Sirens", report.Exercises[1].Name)
}

func TestParseReport_Fenced(t *testing.T) {
	report, err := ParseReport("```json\n{\"voiceType\":\"Alto\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Alto", report.VoiceType)
	assert.Empty(t, report.Songs)
}

func TestParseReport_SkipsUntitledEntries(t *testing.T) {
	report, err := ParseReport(`{"voiceType":"Tenor","songs":[{"artist":"x"},{"title":"Nessun Dorma"}],"exercises":[{}]}`)
	require.NoError(t, err)
	require.Len(t, report.Songs, 1)
	assert.Equal(t, "Nessun Dorma", report.Songs[0].Title)
	assert.Empty(t, report.Exercises)
}

func TestParseReport_Rejects(t *testing.T) {
	for name, text := range map[string]string{
		"empty":        "",
		"whitespace":   "  \n ",
		"prose":        "You are a tenor.",
		"array":        `[{"voiceType":"Bass"}]`,
		"no voiceType": `{"description":"nice"}`,
		"truncated":    `{"voiceType":"Bass"`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReport(text)
			assert.Error(t, err)
		})
	}
}
