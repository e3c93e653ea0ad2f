package activity

import "strings"

// Category is one of the closed set of activity labels.
type Category string

const (
	CategoryDevelopment   Category = "development"
	CategoryDesign        Category = "design"
	CategoryCommunication Category = "communication"
	CategoryResearch      Category = "research"
	CategoryDistraction   Category = "distraction"
	CategoryOther         Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryDevelopment,
	CategoryDesign,
	CategoryCommunication,
	CategoryResearch,
	CategoryDistraction,
	CategoryOther,
}

// ParseCategory normalizes s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}
