package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}

// Title builds a title property value.
func Title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText(s)}
}

// Text builds a rich_text property value.
func Text(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText(s)}
}

// Number builds a number property value.
func Number(f float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: f}
}

// Select builds a select property value.
func Select(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: name}}
}

// Date builds a date property value.
func Date(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Type: notionapi.PropertyTypeDate, Date: &notionapi.DateObject{Start: &d}}
}

// URL builds a url property value. Scheme-less values get https://.
func URL(u string) notionapi.URLProperty {
	u = strings.TrimSpace(u)
	if u != "" && !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: u}
}

func plain(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}

// PlainTitle returns the text of a title property, or "" if absent.
func PlainTitle(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case *notionapi.TitleProperty:
		return plain(p.Title)
	case notionapi.TitleProperty:
		return plain(p.Title)
	}
	return ""
}

// PlainText returns the text of a rich_text property, or "" if absent.
func PlainText(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case *notionapi.RichTextProperty:
		return plain(p.RichText)
	case notionapi.RichTextProperty:
		return plain(p.RichText)
	}
	return ""
}

// MultiSelectNames returns the option names of a multi_select property.
func MultiSelectNames(props notionapi.Properties, name string) []string {
	var opts []notionapi.Option
	switch p := props[name].(type) {
	case *notionapi.MultiSelectProperty:
		opts = p.MultiSelect
	case notionapi.MultiSelectProperty:
		opts = p.MultiSelect
	}
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if n := strings.TrimSpace(o.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
