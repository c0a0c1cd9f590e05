package catalog

import (
	"encoding/json"
	"sort"
	"time"
)

// AttributesMap decodes the product's attribute JSON. A missing or
// malformed document decodes to an empty map.
func (p *Product) AttributesMap() map[string]string {
	attrs := make(map[string]string)
	if p.Attributes == "" {
		return attrs
	}
	_ = json.Unmarshal([]byte(p.Attributes), &attrs)
	return attrs
}

// SetAttributesMap replaces the product's attribute document
func (p *Product) SetAttributesMap(attrs map[string]string) {
	if len(attrs) == 0 {
		p.Attributes = "{}"
	} else {
		raw, err := json.Marshal(attrs)
		if err != nil {
			return
		}
		p.Attributes = string(raw)
	}
	p.UpdatedAt = time.Now()
}

// AttributeValue returns one attribute value or "" when absent
func (p *Product) AttributeValue(name string) string {
	return p.AttributesMap()[name]
}

// SetAttributeValue writes one attribute, keeping the rest intact
func (p *Product) SetAttributeValue(name, value string) {
	attrs := p.AttributesMap()
	attrs[name] = value
	p.SetAttributesMap(attrs)
}

// AttributeNames returns the attribute names in stable order
func (p *Product) AttributeNames() []string {
	attrs := p.AttributesMap()
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
