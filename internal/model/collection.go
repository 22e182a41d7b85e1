package model

// Collection is one imported document, or one tag folder inside it.
type Collection struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	APIVersion  string         `json:"apiVersion,omitempty"`
	Auth        CollectionAuth `json:"auth"`
	Headers     []KeyValue     `json:"headers"`
	Variables   []Variable     `json:"variables"`
	Folders     []Collection   `json:"folders"`
	Requests    []Request      `json:"requests"`
}

// CollectionAuth is the auth configuration of a collection. The root
// collection also carries the resolved base URL.
type CollectionAuth struct {
	Auth
	BaseURL string `json:"baseUrl,omitempty"`
}

// Folder returns the child collection with the given name, or nil.
func (c *Collection) Folder(name string) *Collection {
	for i := range c.Folders {
		if c.Folders[i].Name == name {
			return &c.Folders[i]
		}
	}
	return nil
}

type KeyValue struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

type Variable struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Active bool   `json:"active"`
}
