package domain

// Target categories of the simplified taxonomy.
const (
	CategoryFiction             = "Fiction"
	CategoryNonfiction          = "Nonfiction"
	CategoryChildrensFiction    = "Children's Fiction"
	CategoryChildrensNonfiction = "Children's Nonfiction"
)

// FilterAll disables a recommendation filter.
const FilterAll = "All"

// TargetCategories returns the closed set of mapped categories.
func TargetCategories() []string {
	return []string{CategoryFiction, CategoryNonfiction, CategoryChildrensFiction, CategoryChildrensNonfiction}
}

// BackfillCategories returns the labels offered to the zero-shot classifier.
func BackfillCategories() []string {
	return []string{CategoryFiction, CategoryNonfiction}
}
