// Package docs holds the OpenAPI document for the handler annotations,
// in the layout `swag init` emits. Keep it in step with the @Router comments.
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "responses": {
                    "200": {"description": "devices", "schema": {"type": "object", "additionalProperties": true}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/online": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List online devices",
                "responses": {
                    "200": {"description": "devices", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/offline": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List offline devices",
                "responses": {
                    "200": {"description": "devices", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/mac/{mac}": {
            "get": {
                "description": "Unknown addresses return 404 with a null device.",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Get device by hardware address",
                "parameters": [
                    {"type": "string", "description": "Hardware address, e.g. 00:11:22:33:44:55", "name": "mac", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "device", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "device: null", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/ap": {
            "get": {
                "produces": ["application/json"],
                "tags": ["access-points"],
                "summary": "List access points",
                "responses": {
                    "200": {"description": "access_points", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/ap/{ap}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices ever seen on an access point",
                "parameters": [
                    {"type": "string", "description": "Access point host name", "name": "ap", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "devices", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Lines read, events applied and per-line failures since start.",
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Ingest counters",
                "responses": {
                    "200": {"description": "stats", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket. Sends {\"type\":\"devices\",\"data\":[...]} every interval. filter=all|online|offline, ap=<name>.",
                "tags": ["devices"],
                "summary": "Device snapshot stream",
                "parameters": [
                    {"type": "string", "example": "2s", "description": "Go duration, max 10s", "name": "interval", "in": "query"},
                    {"type": "integer", "description": "Milliseconds, max 10000", "name": "interval_ms", "in": "query"},
                    {"type": "string", "description": "all, online or offline", "name": "filter", "in": "query"},
                    {"type": "string", "description": "Only devices ever seen on this access point", "name": "ap", "in": "query"}
                ],
                "responses": {}
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
	Title:            "wifi tracker API",
	Description:      "Read-only queries over wifi client associations learned from hostapd logs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
