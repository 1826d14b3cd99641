package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for product documents.
const DefaultIndexName = "discovery_products"

// buildIndexMapping returns the JSON mapping for the products index.
//
// Matching is substring based, so the lowercased search_* copies use the
// wildcard field type. Facet fields carry a lowercase-normalized "norm"
// subfield so filters compare case-insensitively.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": {
          "type": "custom",
          "filter": ["lowercase", "trim"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":                 { "type": "keyword" },
      "title":              { "type": "text", "fields": { "sort": { "type": "keyword", "normalizer": "lowercase_normalizer", "ignore_above": 512 } } },
      "description":        { "type": "text" },
      "category":           { "type": "keyword", "fields": { "norm": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "brand":              { "type": "keyword" },
      "price":              { "type": "keyword", "index": false },
      "price_value":        { "type": "double" },
      "image_url":          { "type": "keyword", "index": false },
      "ingredients":        { "type": "keyword", "fields": { "norm": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "skin_types":         { "type": "keyword", "fields": { "norm": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "hair_types":         { "type": "keyword", "fields": { "norm": { "type": "keyword", "normalizer": "lowercase_normalizer" } } },
      "pricing":            { "type": "object", "enabled": false },
      "created_at":         { "type": "date" },
      "position":           { "type": "long" },
      "search_title":       { "type": "wildcard" },
      "search_description": { "type": "wildcard" },
      "search_category":    { "type": "wildcard" }
    }
  }
}`
}
