package handlers

import (
	"encoding/json"
	"net/http"
)

func queryParam(name, description string, required bool, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    required,
		"schema":      schema,
	}
}

func stringSchema() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func enumSchema(def string, values ...string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "enum": values, "default": def}
}

func jsonResponse(description, ref string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/" + ref},
			},
		},
	}
}

func errorResponses(codes ...string) map[string]interface{} {
	descriptions := map[string]string{
		"400": "Invalid parameters",
		"404": "Unknown grade, scale or index",
		"500": "Internal server error",
	}
	out := map[string]interface{}{}
	for _, code := range codes {
		out[code] = jsonResponse(descriptions[code], "ErrorResponse")
	}
	return out
}

func withSuccess(success map[string]interface{}, errs map[string]interface{}) map[string]interface{} {
	errs["200"] = success
	return errs
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Grade Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	valueParam := queryParam("value", "Grade label, e.g. 6c+", true, stringSchema())
	fromParam := queryParam("from", "Source scale id (case-insensitive), e.g. FR", true, stringSchema())
	toParam := queryParam("to", "Target scale id, e.g. YDS", true, stringSchema())

	gradeSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"value": map[string]string{"type": "string"},
			"scale": map[string]string{"type": "string"},
		},
	}
	gradeList := map[string]interface{}{"type": "array", "items": map[string]string{"$ref": "#/components/schemas/Grade"}}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Grade Platform API",
			"description": "Converts climbing grades between scales through a shared difficulty index crosswalk",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Grade Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/convert": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Convert a grade",
					"description": "Every equivalent grade in the target scale, over all source indexes, de-duplicated",
					"parameters":  []map[string]interface{}{valueParam, fromParam, toParam},
					"responses":   withSuccess(jsonResponse("Equivalent grades", "ConvertResponse"), errorResponses("400", "404")),
				},
			},
			"/api/convert/one": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Convert a grade to a single equivalent",
					"description": "source_policy picks the source index, target_policy picks the variant at that index; grade is null when the target has no cell there",
					"parameters": []map[string]interface{}{
						valueParam, fromParam, toParam,
						queryParam("source_policy", "Source index policy", false, enumSchema("LOWEST", "LOWEST", "MIDDLE", "HIGHEST")),
						queryParam("target_policy", "Target variant policy", false, enumSchema("FIRST", "FIRST", "MIDDLE", "LAST")),
					},
					"responses": withSuccess(jsonResponse("Single equivalent grade", "ConvertOneResponse"), errorResponses("400", "404")),
				},
			},
			"/api/convert/all": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Convert a grade to every registered scale",
					"description": "Object keyed by scale id in registration order",
					"parameters": []map[string]interface{}{
						valueParam, fromParam,
						queryParam("include_source", "Include the source scale with the grade unchanged", false, map[string]interface{}{"type": "boolean", "default": false}),
					},
					"responses": withSuccess(jsonResponse("Conversions per scale", "ConvertAllResponse"), errorResponses("400", "404")),
				},
			},
			"/api/scales": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":   "List registered scales",
					"responses": map[string]interface{}{"200": jsonResponse("Registered scales", "ScaleList")},
				},
			},
			"/api/scales/{scale}/index/{index}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Variants at a difficulty index",
					"parameters": []map[string]interface{}{
						{"name": "scale", "in": "path", "required": true, "schema": stringSchema()},
						{"name": "index", "in": "path", "required": true, "schema": map[string]interface{}{"type": "integer", "minimum": 1}},
					},
					"responses": withSuccess(jsonResponse("Variants in cell order", "VariantsResponse"), errorResponses("400", "404")),
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]string{"description": "Service is healthy"},
						"503": map[string]string{"description": "A dependency is unhealthy"},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Grade": gradeSchema,
				"ConvertResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"from":   map[string]string{"$ref": "#/components/schemas/Grade"},
						"to":     map[string]string{"type": "string"},
						"grades": gradeList,
					},
				},
				"ConvertOneResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"from":          map[string]string{"$ref": "#/components/schemas/Grade"},
						"to":            map[string]string{"type": "string"},
						"source_policy": map[string]string{"type": "string"},
						"target_policy": map[string]string{"type": "string"},
						"grade":         map[string]interface{}{"allOf": []map[string]string{{"$ref": "#/components/schemas/Grade"}}, "nullable": true},
					},
				},
				"ConvertAllResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"from":        map[string]string{"$ref": "#/components/schemas/Grade"},
						"conversions": map[string]interface{}{"type": "object", "additionalProperties": gradeList},
					},
				},
				"ScaleList": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"scales": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"id":         map[string]string{"type": "string"},
									"name":       map[string]string{"type": "string"},
									"discipline": map[string]string{"type": "string"},
									"indexes":    map[string]string{"type": "integer"},
									"grades":     map[string]string{"type": "integer"},
								},
							},
						},
					},
				},
				"VariantsResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"scale":    map[string]string{"type": "string"},
						"index":    map[string]string{"type": "integer"},
						"variants": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
					},
				},
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
