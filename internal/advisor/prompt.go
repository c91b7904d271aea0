package advisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Number of suggestions requested from the model.
const (
	songCount     = 3
	exerciseCount = 2
)

var errEmptyResponse = errors.New("empty response")

// BuildPrompt returns the request sent to the model for the range low..high.
func BuildPrompt(low, high string) string {
	var b strings.Builder
	b.WriteString("I have tested my vocal range.\n")
	fmt.Fprintf(&b, "My lowest comfortable note is %s.\n", low)
	fmt.Fprintf(&b, "My highest comfortable note is %s.\n\n", high)
	b.WriteString("Based on this:\n")
	b.WriteString("1. Determine my likely voice type (e.g., Bass, Baritone, Tenor, Alto, Mezzo-Soprano, Soprano).\n")
	b.WriteString("2. Provide a short, encouraging description of this range.\n")
	fmt.Fprintf(&b, "3. Suggest %d popular songs that would suit this range well.\n", songCount)
	fmt.Fprintf(&b, "4. Suggest %d vocal exercises to improve or expand this range.\n\n", exerciseCount)
	b.WriteString(`Respond with a JSON object with the keys "voiceType" (string), "description" (string), `)
	b.WriteString(`"songs" (array of objects with "title", "artist", "reason") and `)
	b.WriteString(`"exercises" (array of objects with "name", "instructions").`)
	return b.String()
}

// ParseReport decodes the model's JSON answer. Markdown code fences around
// the object are tolerated.
func ParseReport(text string) (*Report, error) {
	text = stripFence(text)
	if text == "" {
		return nil, errEmptyResponse
	}
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, fmt.Errorf("response is not a JSON object")
	}

	report := &Report{
		VoiceType:   strings.TrimSpace(root.Get("voiceType").String()),
		Description: strings.TrimSpace(root.Get("description").String()),
	}
	if report.VoiceType == "" {
		return nil, fmt.Errorf("response has no voiceType")
	}

	for _, s := range root.Get("songs").Array() {
		song := Song{
			Title:  s.Get("title").String(),
			Artist: s.Get("artist").String(),
			Reason: s.Get("reason").String(),
		}
		if song.Title == "" {
			continue
		}
		report.Songs = append(report.Songs, song)
	}
	for _, e := range root.Get("exercises").Array() {
		ex := Exercise{
			Name:         e.Get("name").String(),
			Instructions: e.Get("instructions").String(),
		}
		if ex.Name == "" {
			continue
		}
		report.Exercises = append(report.Exercises, ex)
	}
	return report, nil
}

func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
