// Package docs registers the OpenAPI document served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/analyze/image": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze a still image",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "file", "in": "formData"},
                    {"type": "string", "description": "Server-side image path", "name": "path", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ImageAnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.APIError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/analyze/video": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze a recorded MJPEG video",
                "parameters": [
                    {"type": "file", "description": "MJPEG file", "name": "file", "in": "formData"},
                    {"type": "string", "description": "Server-side video path", "name": "path", "in": "formData"},
                    {"type": "integer", "description": "Analyze every Nth frame", "name": "sample_rate", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.VideoAnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/analyze/webcam": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Run a bounded webcam session on the configured camera",
                "parameters": [
                    {"description": "Session options", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.WebcamAnalysisRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.WebcamAnalysisResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "List analysis results",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ResultListResponse"}}
                }
            }
        },
        "/results/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["results"],
                "summary": "Get an analysis result",
                "parameters": [
                    {"type": "string", "description": "Result ID or prefix", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ResultResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.APIError"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/thumbnails/{name}": {
            "get": {
                "produces": ["image/jpeg"],
                "tags": ["results"],
                "summary": "Get a result thumbnail",
                "parameters": [
                    {"type": "string", "description": "Thumbnail file name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "List live sessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LiveSessionListResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Get a live session",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LiveSessionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/upload-results": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["receiver"],
                "summary": "Upload a result document",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReceiptResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/shared.APIError"}}
                }
            }
        },
        "/view-last-result": {
            "get": {
                "produces": ["application/json"],
                "tags": ["receiver"],
                "summary": "View the last received result",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LastResultResponse"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        }
    },
    "definitions": {
        "shared.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.ImageAnalysisResponse": {"type": "object"},
        "dto.VideoAnalysisResponse": {"type": "object"},
        "dto.WebcamAnalysisRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "example": "continuous"},
                "duration_ms": {"type": "integer", "example": 10000},
                "bursts": {"type": "integer", "example": 3}
            }
        },
        "dto.WebcamAnalysisResponse": {"type": "object"},
        "dto.ResultMeta": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "source_type": {"type": "string"},
                "source_name": {"type": "string"},
                "summary": {"type": "string"},
                "thumbnail": {"type": "string"}
            }
        },
        "dto.ResultResponse": {
            "allOf": [
                {"$ref": "#/definitions/dto.ResultMeta"},
                {"type": "object", "properties": {"results": {"type": "object"}}}
            ]
        },
        "dto.ResultListResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/dto.ResultMeta"}}
            }
        },
        "dto.LiveSessionResponse": {"type": "object"},
        "dto.LiveSessionListResponse": {"type": "object"},
        "dto.ReceiptResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "received"}}
        },
        "dto.LastResultResponse": {
            "type": "object",
            "properties": {
                "last_result": {"type": "object"},
                "received_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MoodLens API",
	Description:      "Facial mood analysis for images, videos and webcam sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
