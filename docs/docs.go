// Package docs holds the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/documents": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}}}
            }
        },
        "/api/documents/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload documents",
                "parameters": [
                    {"type": "file", "description": "Documents", "name": "files", "in": "formData", "required": true},
                    {"type": "string", "description": "Folder ID", "name": "folderId", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/api/documents/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Search documents",
                "parameters": [
                    {"type": "string", "description": "Query", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "default": 20, "description": "Max hits", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/api/documents/folder/{folderId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List documents in a folder",
                "parameters": [{"type": "string", "description": "Folder ID", "name": "folderId", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}}}
            }
        },
        "/api/documents/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a document",
                "parameters": [{"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [{"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/api/documents/{id}/content": {
            "get": {
                "produces": ["application/octet-stream"],
                "tags": ["documents"],
                "summary": "Download original content",
                "parameters": [{"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/api/folders": {
            "get": {
                "produces": ["application/json"],
                "tags": ["folders"],
                "summary": "List folders",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["folders"],
                "summary": "Create a folder",
                "parameters": [{"description": "Folder", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createFolderRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        },
        "/api/folders/tree": {
            "get": {
                "produces": ["application/json"],
                "tags": ["folders"],
                "summary": "Folder tree",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}}}
            }
        },
        "/api/folders/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["folders"],
                "summary": "Get a folder",
                "parameters": [{"type": "string", "description": "Folder ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["folders"],
                "summary": "Delete a folder",
                "parameters": [{"type": "string", "description": "Folder ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.envelope"}}
                }
            }
        }
    },
    "definitions": {
        "handler.createFolderRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "parentId": {"type": "string"}
            }
        },
        "handler.envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "message": {"type": "string"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "requestId": {"type": "string"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "originalName": {"type": "string"},
                "path": {"type": "string"},
                "folderId": {"type": "string"},
                "size": {"type": "integer"},
                "type": {"type": "string"},
                "uploadedAt": {"type": "string"},
                "summary": {"type": "string"},
                "markdown": {"type": "string"},
                "processingStatus": {"type": "string", "enum": ["pending", "processing", "completed", "failed"]}
            }
        },
        "model.Folder": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "parentId": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Document Vault API",
	Description:      "Upload documents, track AI enrichment and organize them in folders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
