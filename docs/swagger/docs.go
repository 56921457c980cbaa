// Package swagger registers the OpenAPI document served at /swagger/doc.json.
package swagger

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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/auth.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/videos/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Videos"],
                "summary": "Upload video",
                "parameters": [
                    {"type": "file", "description": "video file", "name": "video", "in": "formData", "required": true},
                    {"type": "string", "description": "owner user id", "name": "userId", "in": "formData", "required": true},
                    {"type": "string", "description": "notification address", "name": "userEmail", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/videos/{videoId}/url": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Videos"],
                "summary": "Video link",
                "parameters": [
                    {"type": "string", "description": "video id", "name": "videoId", "in": "path", "required": true},
                    {"type": "string", "description": "owner user id", "name": "userId", "in": "query", "required": true},
                    {"type": "string", "description": "derived or native", "name": "mode", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/videos/list": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Videos"],
                "summary": "List videos",
                "parameters": [
                    {"type": "string", "description": "owner user id", "name": "userId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/videos/usage": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Videos"],
                "summary": "Storage usage",
                "parameters": [
                    {"type": "string", "description": "owner user id", "name": "userId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Create user",
                "description": "Registers a user and returns a generated 6-digit password once.",
                "parameters": [
                    {"description": "user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.createRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/users/{userId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get user",
                "parameters": [{"type": "string", "name": "userId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Update user",
                "parameters": [
                    {"type": "string", "name": "userId", "in": "path", "required": true},
                    {"description": "fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.updateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Delete user",
                "parameters": [{"type": "string", "name": "userId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/users/email/{email}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get user by email",
                "parameters": [{"type": "string", "name": "email", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/emails/send": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Emails"],
                "summary": "Send email through the provider chain",
                "parameters": [
                    {"description": "message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/notify.sendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        },
        "/emails/video-processed": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Emails"],
                "summary": "Notify a processed study",
                "description": "Issues a new access PIN for the recipient's account and emails it with the study link. The previous PIN stays valid until the new one is first used.",
                "parameters": [
                    {"description": "notice", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/notify.videoNoticeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/apperr.Envelope"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/apperr.Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "apperr.Envelope": {
            "type": "object",
            "properties": {
                "status": {"type": "integer"},
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {"type": "string"},
                "details": {"type": "string"},
                "pagination": {"$ref": "#/definitions/apperr.Pagination"}
            }
        },
        "apperr.Pagination": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "hasMore": {"type": "boolean"}
            }
        },
        "auth.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "user.createRequest": {
            "type": "object",
            "required": ["user_id", "email"],
            "properties": {
                "user_id": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "user.updateRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "notify.sendRequest": {
            "type": "object",
            "required": ["to", "subject", "html"],
            "properties": {
                "to": {"type": "string"},
                "subject": {"type": "string"},
                "html": {"type": "string"},
                "provider": {"type": "string"}
            }
        },
        "notify.videoNoticeRequest": {
            "type": "object",
            "required": ["userEmail", "videoUrl"],
            "properties": {
                "userEmail": {"type": "string"},
                "videoUrl": {"type": "string"},
                "userName": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "MedVerify API",
	Description:      "Video upload, presigned links, users and email notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
