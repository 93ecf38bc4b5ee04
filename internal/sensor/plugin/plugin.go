package plugin

import "context"

// Plugin is the host's description of one installed plugin. File is the
// plugin's main file relative to the plugins directory and identifies it.
type Plugin struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	PluginURI   string `json:"plugin_uri,omitempty"`
	AuthorURI   string `json:"author_uri,omitempty"`
	Network     bool   `json:"network,omitempty"`
}

// Catalog reads current plugin state from the host.
type Catalog interface {
	Plugins(ctx context.Context) ([]Plugin, error)
	Plugin(ctx context.Context, file string) (Plugin, bool, error)
}

var (
	detailAttributes = []string{"Name", "PluginURI", "Version", "Description", "Author", "AuthorURI"}
	updateAttributes = []string{"Version", "Description", "Author", "PluginURI", "AuthorURI"}
)

func (p Plugin) Attribute(name string) any {
	var v string
	switch name {
	case "Name":
		v = p.Name
	case "Version":
		v = p.Version
	case "Description":
		v = p.Description
	case "Author":
		v = p.Author
	case "PluginURI":
		v = p.PluginURI
	case "AuthorURI":
		v = p.AuthorURI
	case "Network":
		if p.Network {
			return 1
		}
		return nil
	}
	if v == "" {
		return nil
	}
	return v
}
