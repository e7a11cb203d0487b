// Package docs registers the OpenAPI description served at /api/swagger.
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
        "/contact": {
            "post": {
                "description": "Validates the submission, checks attachments and relays it to the workshop mailbox.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contact"],
                "summary": "Submit contact form",
                "parameters": [
                    {
                        "description": "Contact form data",
                        "name": "contact",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/domain.ContactRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/contact/form": {
            "post": {
                "description": "Plain HTML form variant without attachments. Requires the csrftoken cookie and a matching csrf field.",
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["contact"],
                "summary": "Submit contact form (form-encoded)",
                "parameters": [
                    {"type": "string", "description": "Name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Phone", "name": "phone", "in": "formData", "required": true},
                    {"type": "string", "description": "E-mail", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "VIN", "name": "vin", "in": "formData", "required": true},
                    {"type": "string", "description": "Message", "name": "msg", "in": "formData", "required": true},
                    {"type": "string", "description": "CSRF token", "name": "csrf", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.Response"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/v1.HealthResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Probes the rate limit store and the virus scanner when they are remote.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Readiness of backing services",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/v1.ReadinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/v1.ReadinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AttachmentPayload": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "contentType": {"type": "string", "example": "image/jpeg"},
                "filename": {"type": "string", "example": "zdjecie.jpg"}
            }
        },
        "domain.ContactRequest": {
            "type": "object",
            "properties": {
                "attachments": {"type": "array", "items": {"$ref": "#/definitions/domain.AttachmentPayload"}},
                "csrf": {"type": "string"},
                "email": {"type": "string", "example": "jan@example.com"},
                "honeypot": {"type": "string"},
                "msg": {"type": "string", "example": "Stuk z przodu przy hamowaniu."},
                "name": {"type": "string", "example": "Jan"},
                "phone": {"type": "string", "example": "+48 796000000"},
                "source": {"type": "string", "maxLength": 64, "example": "website-4kolka"},
                "timestamp": {"type": "string", "example": "2026-04-01T09:30:00.000Z"},
                "vin": {"type": "string", "example": "WAUZZZ8K79A123456"}
            }
        },
        "response.Details": {
            "type": "object",
            "properties": {
                "fieldErrors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "formErrors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "details": {"$ref": "#/definitions/response.Details"},
                "error": {"type": "string"},
                "id": {"type": "string"},
                "message": {"type": "string"},
                "ok": {"type": "boolean"},
                "requestId": {"type": "string"}
            }
        },
        "v1.HealthResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "uptime": {"type": "number", "example": 3600.5}
            }
        },
        "v1.ReadinessResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "ok": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "4 KÓŁKA Contact API",
	Description:      "Contact form submission endpoint for the 4 KÓŁKA workshop website.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
