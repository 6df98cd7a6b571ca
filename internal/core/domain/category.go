package domain

const categoryPathPrefix = "/search"

type Category struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Image       *Image
	Path        string
}

// AllCategory is the synthetic unfiltered catalog entry.
func AllCategory() Category {
	return Category{
		Name:        "All",
		Description: "All products",
		Path:        categoryPathPrefix,
	}
}

func CategoryPath(slug string) string {
	if slug == "" {
		return categoryPathPrefix
	}
	return categoryPathPrefix + "/" + slug
}

// SearchResult pairs matching products with matching categories.
type SearchResult struct {
	Products   []Product
	Categories []Category
}
