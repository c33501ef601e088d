package vendure

const productFragment = `
  fragment ProductFragment on Product {
    id
    name
    slug
    description
    featuredAsset {
      id
      preview
      source
    }
    variants {
      id
      name
      sku
      price
      priceWithTax
      currencyCode
      stockLevel
      featuredAsset {
        id
        preview
        source
      }
    }
    collections {
      id
      name
      slug
    }
  }
`

const orderFragment = `
  fragment OrderFragment on Order {
    id
    code
    state
    totalQuantity
    totalWithTax
    currencyCode
    lines {
      id
      quantity
      linePrice
      linePriceWithTax
      productVariant {
        id
        name
        sku
        product {
          id
          name
          slug
          featuredAsset {
            id
            preview
            source
          }
        }
      }
    }
  }
`

const getProductsQuery = `
  query GetProducts($options: ProductListOptions) {
    products(options: $options) {
      items {
        ...ProductFragment
      }
      totalItems
    }
  }
` + productFragment

const getProductBySlugQuery = `
  query GetProductBySlug($slug: String!) {
    product(slug: $slug) {
      ...ProductFragment
    }
  }
` + productFragment

const getProductByIDQuery = `
  query GetProductById($id: ID!) {
    product(id: $id) {
      ...ProductFragment
    }
  }
` + productFragment

const getCollectionsQuery = `
  query GetCollections {
    collections {
      items {
        id
        name
        slug
        description
        featuredAsset {
          id
          preview
          source
        }
      }
    }
  }
`

const searchProductsQuery = `
  query SearchProducts($input: SearchInput!) {
    search(input: $input) {
      items {
        productId
        productName
        productVariantId
        productVariantName
        slug
        sku
        price {
          ... on PriceRange {
            min
            max
          }
          ... on SinglePrice {
            value
          }
        }
        priceWithTax {
          ... on PriceRange {
            min
            max
          }
          ... on SinglePrice {
            value
          }
        }
        currencyCode
        productAsset {
          id
          preview
          source
        }
        productVariantAsset {
          id
          preview
          source
        }
      }
      totalItems
    }
  }
`

const getActiveOrderQuery = `
  query GetActiveOrder {
    activeOrder {
      ...OrderFragment
    }
  }
` + orderFragment

const addItemToOrderMutation = `
  mutation AddItemToOrder($productVariantId: ID!, $quantity: Int!) {
    addItemToOrder(productVariantId: $productVariantId, quantity: $quantity) {
      ... on Order {
        ...OrderFragment
      }
      ... on ErrorResult {
        errorCode
        message
      }
    }
  }
` + orderFragment

const removeOrderLineMutation = `
  mutation RemoveOrderLine($orderLineId: ID!) {
    removeOrderLine(orderLineId: $orderLineId) {
      ... on Order {
        ...OrderFragment
      }
      ... on ErrorResult {
        errorCode
        message
      }
    }
  }
` + orderFragment

const adjustOrderLineMutation = `
  mutation AdjustOrderLine($orderLineId: ID!, $quantity: Int!) {
    adjustOrderLine(orderLineId: $orderLineId, quantity: $quantity) {
      ... on Order {
        ...OrderFragment
      }
      ... on ErrorResult {
        errorCode
        message
      }
    }
  }
` + orderFragment
