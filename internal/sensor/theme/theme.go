package theme

import (
	"context"
	"strings"
)

// Theme is the host's description of one installed theme.
type Theme struct {
	Stylesheet  string   `json:"stylesheet"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Author      string   `json:"author,omitempty"`
	Version     string   `json:"version,omitempty"`
	ThemeURI    string   `json:"theme_uri,omitempty"`
	AuthorURI   string   `json:"author_uri,omitempty"`
	Status      string   `json:"status,omitempty"`
	Template    string   `json:"template,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	TextDomain  string   `json:"text_domain,omitempty"`
	DomainPath  string   `json:"domain_path,omitempty"`
}

// Catalog reads current theme state from the host.
type Catalog interface {
	Themes(ctx context.Context) ([]Theme, error)
	Theme(ctx context.Context, stylesheet string) (Theme, bool, error)
}

var (
	// recorded on switch and delete
	detailAttributes = []string{
		"Name", "ThemeURI", "Description", "Author", "AuthorURI", "Version",
		"Template", "Status", "Tags", "TextDomain", "DomainPath",
	}
	// diffed on update; Name is always recorded separately
	updateAttributes = []string{
		"Description", "Author", "Version", "ThemeURI", "AuthorURI", "Status",
	}
)

// Attribute returns a header value, nil when the theme does not set it.
// Tags are joined with ", ".
func (t Theme) Attribute(name string) any {
	var v string
	switch name {
	case "Name":
		v = t.Name
	case "Description":
		v = t.Description
	case "Author":
		v = t.Author
	case "Version":
		v = t.Version
	case "ThemeURI":
		v = t.ThemeURI
	case "AuthorURI":
		v = t.AuthorURI
	case "Status":
		v = t.Status
	case "Template":
		v = t.Template
	case "Tags":
		v = strings.Join(t.Tags, ", ")
	case "TextDomain":
		v = t.TextDomain
	case "DomainPath":
		v = t.DomainPath
	case "stylesheet":
		v = t.Stylesheet
	}
	if v == "" {
		return nil
	}
	return v
}
