package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

// DigestItem is one collaboration line in an overdue or reminder email.
type DigestItem struct {
	InfluencerNickname string
	Stage              string
	Deadline           time.Time
}

type digestEmailData struct {
	baseEmailData
	RecipientName string
	Items         []digestItemView
}

type digestItemView struct {
	InfluencerNickname string
	Stage              string
	Deadline           string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func digestItems(items []DigestItem) []digestItemView {
	views := make([]digestItemView, 0, len(items))
	for _, item := range items {
		views = append(views, digestItemView{
			InfluencerNickname: item.InfluencerNickname,
			Stage:              item.Stage,
			Deadline:           formatDeadline(item.Deadline),
		})
	}
	return views
}

func formatDeadline(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
