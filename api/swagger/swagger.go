package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Submission Image Export API",
        "description": "Packages assignment submission images into ZIP downloads and serves submission galleries.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Exports", "description": "Submission image archives"},
        {"name": "Gallery", "description": "A learner's submitted images"},
        {"name": "Files", "description": "Signed file content"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Record store unreachable"}
                }
            }
        },
        "/api/v1/exports/students/{studentId}/images": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a student's submission images",
                "security": [{"BearerAuth": []}],
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "integer"},
                    {"name": "courseId", "in": "query", "type": "array", "items": {"type": "integer"}, "collectionFormat": "multi"},
                    {"name": "returnUrl", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "ZIP archive", "schema": {"type": "file"}},
                    "303": {"description": "Redirect to returnUrl carrying notice, level and message"}
                }
            }
        },
        "/api/v1/exports/course-modules/{cmid}/images": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download every submission image of an assignment",
                "security": [{"BearerAuth": []}],
                "produces": ["application/zip"],
                "parameters": [
                    {"name": "cmid", "in": "path", "required": true, "type": "integer"},
                    {"name": "returnUrl", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "ZIP archive", "schema": {"type": "file"}},
                    "303": {"description": "Redirect to returnUrl carrying notice, level and message"}
                }
            }
        },
        "/api/v1/course-modules/{cmid}/gallery": {
            "get": {
                "tags": ["Gallery"],
                "summary": "List the caller's submitted images",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "cmid", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/course-modules/{cmid}/gallery/delete": {
            "post": {
                "tags": ["Gallery"],
                "summary": "Delete images from the caller's submission",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "cmid", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/DeleteGalleryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/files/{id}/content": {
            "get": {
                "tags": ["Files"],
                "summary": "Stream a stored file via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File bytes", "schema": {"type": "file"}},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "DeleteGalleryRequest": {
            "type": "object",
            "properties": {
                "fileIds": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
