package notion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyReaders_ParsedPage(t *testing.T) {
	raw := `{
		"id": "page-1",
		"properties": {
			"Name": {"id": "title", "type": "title", "title": [{"type": "text", "plain_text": "Acme Analytics"}]},
			"Key": {"id": "k", "type": "rich_text", "rich_text": [{"type": "text", "plain_text": " comp-acme "}]},
			"Target Industries": {"id": "ti", "type": "multi_select", "multi_select": [{"name": "Technology"}, {"name": " "}, {"name": "Retail"}]}
		}
	}`

	var page notionapi.Page
	require.NoError(t, json.Unmarshal([]byte(raw), &page))

	assert.Equal(t, "Acme Analytics", PlainTitle(page.Properties, "Name"))
	assert.Equal(t, "comp-acme", PlainText(page.Properties, "Key"))
	assert.Equal(t, []string{"Technology", "Retail"}, MultiSelectNames(page.Properties, "Target Industries"))
	assert.Empty(t, MultiSelectNames(page.Properties, "Customer Segments"))
	assert.Equal(t, "", PlainText(page.Properties, "Missing"))
}

func TestPropertyBuilders(t *testing.T) {
	props := notionapi.Properties{
		"Name":  Title("Acme pricing change"),
		"Notes": Text("two accounts critical"),
		"Tags":  notionapi.MultiSelectProperty{MultiSelect: []notionapi.Option{{Name: "pricing"}}},
	}
	assert.Equal(t, "Acme pricing change", PlainTitle(props, "Name"))
	assert.Equal(t, "two accounts critical", PlainText(props, "Notes"))
	assert.Equal(t, []string{"pricing"}, MultiSelectNames(props, "Tags"))

	assert.Equal(t, "https://acme.example", URL("acme.example").URL)
	assert.Equal(t, "http://acme.example", URL(" http://acme.example ").URL)
	assert.Equal(t, "", URL("").URL)

	assert.InDelta(t, 120000, Number(120000).Number, 0.001)
	assert.Equal(t, "critical", Select("critical").Select.Name)

	when := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	d := Date(when)
	require.NotNil(t, d.Date.Start)
	assert.True(t, time.Time(*d.Date.Start).Equal(when))
}
