package inference

import (
	"encoding/json"
	"fmt"
	"os"
)

// UnknownGesture is the label returned for class indices not in the catalog.
const UnknownGesture = "unknown"

// Catalog is a read-only mapping between gesture labels and class indices.
// It is loaded once at startup from the training pipeline's gestures map and
// shared across all sessions.
type Catalog struct {
	byID   map[int]string
	byName map[string]int
}

// NewCatalog builds a Catalog from a label-to-index map.
func NewCatalog(gestures map[string]int) *Catalog {
	c := &Catalog{
		byID:   make(map[int]string, len(gestures)),
		byName: make(map[string]int, len(gestures)),
	}
	for name, id := range gestures {
		c.byID[id] = name
		c.byName[name] = id
	}
	return c
}

// LoadCatalog reads a gestures map JSON file ({"label": class_index, ...}).
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gestures map: %w", err)
	}

	var gestures map[string]int
	if err := json.Unmarshal(data, &gestures); err != nil {
		return nil, fmt.Errorf("parse gestures map: %w", err)
	}
	if len(gestures) == 0 {
		return nil, fmt.Errorf("gestures map %s is empty", path)
	}

	return NewCatalog(gestures), nil
}

// Label returns the gesture label for a class index, or UnknownGesture if the
// index is not in the catalog.
func (c *Catalog) Label(id int) string {
	if name, ok := c.byID[id]; ok {
		return name
	}
	return UnknownGesture
}

// ID returns the class index for a gesture label.
func (c *Catalog) ID(name string) (int, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Labels returns all gesture labels in the catalog.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.byName))
	for name := range c.byName {
		labels = append(labels, name)
	}
	return labels
}

// Len returns the number of gesture classes.
func (c *Catalog) Len() int {
	return len(c.byID)
}
