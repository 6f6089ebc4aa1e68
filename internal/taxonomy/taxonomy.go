// Package taxonomy holds the closed set of skill categories workers are searched by.
package taxonomy

import "strings"

// GeneralLabor is assigned to workers whose source record carries no skill.
const GeneralLabor = "General Labor"

// Category is a single skill category together with the keywords that hint at it.
type Category struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

var categories = []Category{
	{Name: "Plumber", Keywords: []string{"water pipes", "taps", "bathroom", "toilet", "drainage"}},
	{Name: "Electrician", Keywords: []string{"wiring", "lights", "fans", "switches", "power"}},
	{Name: "Carpenter", Keywords: []string{"wood", "furniture", "doors", "cabinets"}},
	{Name: "Painter", Keywords: []string{"walls", "house painting", "whitewash"}},
	{Name: "Mason", Keywords: []string{"bricks", "cement", "construction", "tiles"}},
	{Name: "AC Repair", Keywords: []string{"air conditioner", "cooling", "AC service"}},
	{Name: "Welder", Keywords: []string{"metal", "iron", "gates", "grills"}},
	{Name: "Cleaner", Keywords: []string{"house cleaning", "sweeping", "mopping", "deep clean"}},
	{Name: "Driver", Keywords: []string{"car", "tempo", "delivery", "transport"}},
	{Name: GeneralLabor, Keywords: []string{"helper", "loading", "shifting", "daily wage"}},
}

var byName = func() map[string]Category {
	index := make(map[string]Category, len(categories))
	for _, c := range categories {
		index[strings.ToLower(c.Name)] = c
	}
	return index
}()

// All returns every known category in declaration order.
// The returned slice is a copy and may be modified by the caller.
func All() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// Names returns category names in declaration order.
func Names() []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

// Lookup finds a category by its name, ignoring case and surrounding whitespace.
func Lookup(name string) (Category, bool) {
	c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Describe renders one category per line as "- Name (kw1, kw2)".
func Describe() string {
	var b strings.Builder
	for i, c := range categories {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(c.Name)
		if len(c.Keywords) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(c.Keywords, ", "))
			b.WriteString(")")
		}
	}
	return b.String()
}
