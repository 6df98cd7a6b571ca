package woocommerce

const mediaFields = `sourceUrl altText`

const variationFields = `
	id
	databaseId
	name
	price
	regularPrice
	salePrice
	stockStatus
	stockQuantity
	attributes { nodes { name value } }
	image { ` + mediaFields + ` }
`

// variationsPageQuery continues a variation list past the first page.
const variationsPageQuery = `
query getProductVariations($id: ID!, $after: String) {
	product(id: $id, idType: ID) {
		... on VariableProduct {
			variations(first: 100, after: $after) {
				pageInfo { hasNextPage endCursor }
				nodes {` + variationFields + `}
			}
		}
	}
}
`

const productCardFields = `
	__typename
	id
	databaseId
	slug
	name
	shortDescription
	description
	modified
	... on SimpleProduct {
		price
		regularPrice
		salePrice
		stockStatus
		image { ` + mediaFields + ` }
	}
	... on VariableProduct {
		price
		regularPrice
		salePrice
		stockStatus
		image { ` + mediaFields + ` }
	}
	... on ExternalProduct {
		price
		regularPrice
		salePrice
		image { ` + mediaFields + ` }
	}
`

const productQuery = `
query getProduct($slug: ID!) {
	product(id: $slug, idType: SLUG) {
		__typename
		id
		databaseId
		slug
		name
		shortDescription
		description
		modified
		image { ` + mediaFields + ` }
		galleryImages { nodes { ` + mediaFields + ` } }
		... on SimpleProduct {
			price
			regularPrice
			salePrice
			stockStatus
		}
		... on ExternalProduct {
			price
			regularPrice
			salePrice
		}
		... on VariableProduct {
			price
			regularPrice
			salePrice
			stockStatus
			variations(first: 100) {
				pageInfo { hasNextPage endCursor }
				nodes {` + variationFields + `}
			}
		}
	}
}
`

const productsQuery = `
query getProducts($search: String) {
	products(where: {search: $search}, first: 20) {
		nodes {` + productCardFields + `}
	}
}
`

const productsByCategoryQuery = `
query getProductsByCategory($category: String!) {
	products(where: {category: $category}, first: 50) {
		nodes {` + productCardFields + `}
	}
}
`

const categoryFields = `
	id
	slug
	name
	description
	count
	image { ` + mediaFields + ` }
`

const categoryQuery = `
query getCategory($slug: ID!) {
	productCategory(id: $slug, idType: SLUG) {` + categoryFields + `}
}
`

const categoriesQuery = `
query getCategories {
	productCategories(where: {parent: 0}, first: 20) {
		nodes {` + categoryFields + `}
	}
}
`

const searchQuery = `
query search($search: String!) {
	products(where: {search: $search}, first: 20) {
		nodes {` + productCardFields + `}
	}
	productCategories(where: {search: $search}, first: 5) {
		nodes {` + categoryFields + `}
	}
}
`

const cartFields = `
fragment CartFields on Cart {
	contents {
		nodes {
			key
			quantity
			subtotal
			total
			product {
				node {
					__typename
					id
					databaseId
					slug
					name
					image { ` + mediaFields + ` }
					... on SimpleProduct { price }
					... on VariableProduct { price }
				}
			}
			variation {
				node {
					id
					databaseId
					name
					price
					image { ` + mediaFields + ` }
				}
			}
		}
	}
	subtotal
	total
	totalTax
	shippingTotal
	discountTotal
	feeTotal
}
`

const cartQuery = `
query getCart {
	cart { ...CartFields }
}
` + cartFields

const addToCartMutation = `
mutation addToCart($productId: Int!, $quantity: Int, $variationId: Int) {
	addToCart(input: {productId: $productId, quantity: $quantity, variationId: $variationId}) {
		cart { ...CartFields }
	}
}
` + cartFields

const updateItemQuantitiesMutation = `
mutation updateItemQuantities($items: [CartItemQuantityInput]) {
	updateItemQuantities(input: {items: $items}) {
		cart { ...CartFields }
	}
}
` + cartFields

const removeItemsMutation = `
mutation removeItemsFromCart($keys: [ID]) {
	removeItemsFromCart(input: {keys: $keys}) {
		cart { ...CartFields }
	}
}
` + cartFields

const emptyCartMutation = `
mutation emptyCart {
	emptyCart(input: {}) {
		cart { ...CartFields }
	}
}
` + cartFields

const pingQuery = `query ping { __typename }`
