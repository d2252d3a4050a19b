package elasticsearch

import "github.com/utafrali/shopmesh/services/search/internal/domain"

const indexSettings = `"settings": {"number_of_shards": 1, "number_of_replicas": 0}`

// mappings holds the create-index body per index. Ids are keywords so that
// term queries match them exactly.
var mappings = map[string]string{
	domain.IndexShops: `{` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":         { "type": "keyword" },
      "name":       { "type": "text", "analyzer": "standard", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "slug":       { "type": "keyword" },
      "about":      { "type": "text", "analyzer": "standard" },
      "user_id":    { "type": "keyword" },
      "is_active":  { "type": "boolean" },
      "created_at": { "type": "date" }
    }
  }
}`,
	domain.IndexProducts: `{` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "shop_id":     { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "standard" },
      "about":       { "type": "text", "analyzer": "standard" },
      "on_sale":     { "type": "boolean" },
      "is_active":   { "type": "boolean" },
      "top_sale":    { "type": "boolean" },
      "top_popular": { "type": "boolean" },
      "sku":         { "type": "keyword" },
      "created_at":  { "type": "date" }
    }
  }
}`,
	domain.IndexVariations: `{` + indexSettings + `,
  "mappings": {
    "properties": {
      "id":           { "type": "keyword" },
      "product_id":   { "type": "keyword" },
      "size":         { "type": "keyword" },
      "color":        { "type": "keyword" },
      "price":        { "type": "long" },
      "discount":     { "type": "long" },
      "amount_limit": { "type": "integer" },
      "is_active":    { "type": "boolean" }
    }
  }
}`,
}
