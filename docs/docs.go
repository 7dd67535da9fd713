// Package docs holds the OpenAPI description served at /swagger. Keep it in
// step with the handler annotations when routes change.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@opsdesk.io"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/me": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Auth"], "summary": "Get current authenticated user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/users": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Users"], "summary": "List users", "responses": {"200": {"description": "OK"}}}},
        "/orders": {
            "get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Orders"], "summary": "List orders", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Orders"], "summary": "Create order", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/orders/counts": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Orders"], "summary": "Count orders per status", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}": {
            "get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Orders"], "summary": "Get order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Orders"], "summary": "Edit order details", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}},
            "delete": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "tags": ["Order Status"], "summary": "Delete order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/orders/{id}/purge": {"delete": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "tags": ["Orders"], "summary": "Permanently delete order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}},
        "/orders/{id}/status": {"post": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Order Status"], "summary": "Toggle order status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/orders/{id}/assign": {"post": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Order Status"], "summary": "Assign order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/review": {
            "post": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Order Status"], "summary": "Send order to review", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Order Status"], "summary": "Remove order from review", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/orders/{id}/yearly-package": {"put": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Orders"], "summary": "Move order to or from yearly packages", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/history": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Orders"], "summary": "Order history", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/invoice": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Orders"], "summary": "Invoice linked to order", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/orders/{id}/payment-reminder": {
            "get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Payment Reminders"], "summary": "Get payment reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Payment Reminders"], "summary": "Schedule payment reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "tags": ["Payment Reminders"], "summary": "Cancel payment reminder", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/notifications": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Notifications"], "summary": "List notifications", "responses": {"200": {"description": "OK"}}}},
        "/notifications/count": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Notifications"], "summary": "Get unread notification count", "responses": {"200": {"description": "OK"}}}},
        "/notifications/read-all": {"put": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "tags": ["Notifications"], "summary": "Mark all notifications as read", "responses": {"204": {"description": "No Content"}}}},
        "/notifications/{id}": {"get": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "produces": ["application/json"], "tags": ["Notifications"], "summary": "Get notification by ID", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/notifications/{id}/read": {"put": {"security": [{"BearerAuth": []}, {"ApiKeyAuth": []}], "tags": ["Notifications"], "summary": "Mark notification as read", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}}
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"description": "API Key for system operations", "type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"description": "JWT Bearer token", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "OpsDesk API",
	Description:      "Order status, assignment and invoicing API for the agency operations dashboard",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
