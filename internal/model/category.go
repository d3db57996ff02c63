package model

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryColors is the palette offered when creating a category.
var CategoryColors = []string{
	"#FF6B6B", "#4ECDC4", "#FFE66D", "#95E1D3",
	"#A8E6CF", "#FF8C94", "#A0E7E5", "#FFB7B2",
}

func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Work", Color: "#FF6B6B"},
		{ID: "2", Name: "Personal", Color: "#4ECDC4"},
		{ID: "3", Name: "Health", Color: "#FFE66D"},
		{ID: "4", Name: "Shopping", Color: "#95E1D3"},
		{ID: "5", Name: "Other", Color: "#A8E6CF"},
	}
}
