// fastview builds server-side views that are rendered once as html and then kept
// current by pushing element updates to the browser: an input data model is
// converted to a view-model, multiplexed to one or more views, and each view
// turns view-models into element updates.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute names or 'textContent'. ('fill', '#fcf6f5') sets the
	// fill attribute; ('textContent', 'HIT') sets the element's text.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a server side view: Parse adds its initial form to a page
// template, and Updates notifies the element updates that keep it current.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view's template to the parent, inheriting its func-map, and
	// returns the name to invoke it by.
	Parse(*template.Template) (string, error)
}

// Merge overlays newer updates on older ones by element id. Updates are
// idempotent, so the result brings a view to the same state as applying both.
func Merge(older, newer []EleUpdate) []EleUpdate {
	byId := make(map[string]int, len(older)+len(newer))
	merged := make([]EleUpdate, 0, len(older)+len(newer))
	for _, batch := range [][]EleUpdate{older, newer} {
		for _, update := range batch {
			if i, ok := byId[update.EleId]; ok {
				merged[i] = update
				continue
			}
			byId[update.EleId] = len(merged)
			merged = append(merged, update)
		}
	}
	return merged
}

// FuncMap returns the integer arithmetic that view templates lay out svg with.
// Pages install it on the root template before parsing their views.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add":  func(i, j int) int { return i + j },
		"sub":  func(i, j int) int { return i - j },
		"mult": func(i, j int) int { return i * j },
		"div":  func(i, j int) int { return i / j },
		"max": func(i, j int) int {
			if i > j {
				return i
			}
			return j
		},
	}
}
