package tools

// Input schemas for each tool. Ids may arrive as strings or integers; both
// are accepted here and normalized when the arguments are decoded.

const assetIDSchema = `{"type": ["string", "integer"], "minLength": 1, "minimum": 0}`

const listAssetsSchema = `{
  "type": "object",
  "properties": {
    "q":        {"type": "string", "maxLength": 256},
    "tag":      {"type": "string", "maxLength": 128},
    "page":     {"type": "integer", "minimum": 0},
    "pageSize": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`

const listTagsSchema = `{
  "type": "object",
  "additionalProperties": false
}`

const assetIDOnlySchema = `{
  "type": "object",
  "properties": {
    "assetId": ` + assetIDSchema + `
  },
  "required": ["assetId"],
  "additionalProperties": false
}`

const getAssetSchema = `{
  "type": "object",
  "properties": {
    "assetId": ` + assetIDSchema + `,
    "payment": {"type": ["string", "object"]}
  },
  "required": ["assetId"],
  "additionalProperties": false
}`

const uploadAssetSchema = `{
  "type": "object",
  "properties": {
    "filename":      {"type": "string", "minLength": 1},
    "originalName":  {"type": "string"},
    "base64Data":    {"type": "string", "minLength": 1},
    "mimeType":      {"type": "string"},
    "title":         {"type": "string", "maxLength": 512},
    "description":   {"type": "string"},
    "assetType":     {"type": "string", "pattern": "^(?i:image|video|document|pdf|link)$"},
    "url":           {"type": "string", "minLength": 1},
    "price":         {"type": ["string", "number"]},
    "tags":          {"type": ["array", "string"], "items": {"type": "string"}},
    "creatorId":     ` + assetIDSchema + `,
    "creatorWallet": {"type": "string"},
    "metadata":      {"type": "object"}
  },
  "required": ["creatorId"],
  "anyOf": [
    {"required": ["filename", "base64Data"]},
    {"required": ["url"]}
  ],
  "additionalProperties": false
}`

const runAgentSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "minLength": 1}
  },
  "required": ["query"],
  "additionalProperties": false
}`
