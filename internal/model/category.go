package model

// Category is the bucket an image lands in after counting detected people.
type Category string

const (
	CategoryNoPeople Category = "No people detected"
	CategorySingle   Category = "Single Person"
	CategoryTwo      Category = "Two People"
	CategoryGroup    Category = "Group"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{CategoryNoPeople, CategorySingle, CategoryTwo, CategoryGroup}
}

// CategoryForCount maps a person count to its category.
func CategoryForCount(count int) Category {
	switch {
	case count <= 0:
		return CategoryNoPeople
	case count == 1:
		return CategorySingle
	case count == 2:
		return CategoryTwo
	default:
		return CategoryGroup
	}
}
