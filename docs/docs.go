// Package docs holds the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Revenue IT Cell"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ledger/demands/{id}/discounts": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Reduces the base tax of a demand. Only one discount may be active per demand.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["adjustments"],
                "summary": "Apply a discount to a demand",
                "operationId": "applyDiscountLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"description": "Discount", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ApplyAdjustmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/penalty-waivers": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Reduces penalty plus interest of a demand. Only one waiver may be active per demand.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["adjustments"],
                "summary": "Waive penalty and interest on a demand",
                "operationId": "applyPenaltyWaiverLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"description": "Penalty waiver", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ApplyAdjustmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/adjustments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns active and revoked adjustments, newest first",
                "produces": ["application/json"],
                "tags": ["adjustments"],
                "summary": "List adjustments of a demand",
                "operationId": "listAdjustmentsLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/adjustments/{id}/revoke": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Marks the adjustment REVOKED and recomputes the demand from the adjustments still active",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["adjustments"],
                "summary": "Revoke an active adjustment",
                "operationId": "revokeAdjustmentLedger",
                "parameters": [
                    {"type": "integer", "description": "Adjustment ID", "name": "id", "in": "path", "required": true},
                    {"description": "Revoke reason", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RevokeAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "List payments of a demand",
                "operationId": "listPaymentsLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "type": "integer", "default": 20, "description": "Page size", "name": "page_size", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Order", "name": "order_dir", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Guards against overpayment, records the payment and distributes it across the demand",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Record a counter payment",
                "operationId": "recordCounterPaymentLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"description": "Payment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/field-payments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Same guard and distribution as the counter path, recorded against the field channel",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Record a field collection payment",
                "operationId": "recordFieldPaymentLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"description": "Payment", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RecordPaymentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/gateway-orders": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Guards the amount and records a pending online payment whose order id the gateway echoes back",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Create an online payment order",
                "operationId": "createGatewayOrderLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true},
                    {"description": "Order", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CreateGatewayOrderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/distribution-summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Per-component collected and balance amounts plus per-item breakdown",
                "produces": ["application/json"],
                "tags": ["distribution"],
                "summary": "Get the distribution summary of a demand",
                "operationId": "getDistributionSummaryLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/demands/{id}/integrity": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Reconciles header totals, item totals and recorded payments. Mismatches are reported, never repaired.",
                "produces": ["application/json"],
                "tags": ["distribution"],
                "summary": "Check a demand's distribution integrity",
                "operationId": "validateIntegrityLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/documents": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores a PDF, JPEG or PNG proof and returns the document URL to cite in a discount or waiver",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Upload a proof document",
                "operationId": "uploadProofLedger",
                "parameters": [
                    {"type": "integer", "description": "Demand ID", "name": "demand_id", "in": "formData", "required": true},
                    {"type": "file", "description": "Proof document", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/documents/presign": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Get a presigned upload URL for a proof document",
                "operationId": "presignProofUploadLedger",
                "parameters": [
                    {"description": "Document", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PresignProofRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/ledger/payments/gateway/callback": {
            "post": {
                "description": "Verifies the signature, completes the pending online payment and distributes it. Replays return the stored payment.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payment-callbacks"],
                "summary": "Handle a payment gateway callback",
                "operationId": "handleGatewayCallbackLedger",
                "parameters": [
                    {"type": "string", "description": "HMAC-SHA256 of the raw body, required when webhooks are enabled", "name": "X-Gateway-Webhook-Signature", "in": "header"},
                    {"description": "Callback", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.GatewayCallbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system information",
                "operationId": "getSystemSystemInfo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}}
                }
            }
        },
        "/system/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Ping the API",
                "operationId": "pingSystem",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "OVERPAYMENT"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {}},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/dto.ValidationDetail"}}
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.Meta": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "handler.APIResponse": {
            "description": "Standard API response wrapper with typed data field",
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"$ref": "#/definitions/dto.Meta"}
            }
        },
        "handler.ErrorResponse": {
            "description": "Standard error response",
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"}
            }
        },
        "handler.ApplyAdjustmentRequest": {
            "description": "Discount or penalty waiver request",
            "type": "object",
            "properties": {
                "module_type": {"type": "string", "example": "PROPERTY"},
                "entity_id": {"type": "integer", "example": 1024},
                "type": {"type": "string", "enum": ["PERCENTAGE", "FIXED"], "example": "PERCENTAGE"},
                "value": {"type": "string", "example": "10"},
                "reason": {"type": "string", "maxLength": 500, "example": "Senior citizen rebate"},
                "document_url": {"type": "string", "maxLength": 1024, "example": "https://docs.example.org/proofs/1.pdf"}
            }
        },
        "handler.RevokeAdjustmentRequest": {
            "description": "Adjustment revoke request",
            "type": "object",
            "properties": {
                "reason": {"type": "string", "maxLength": 500, "example": "Applied to the wrong financial year"}
            }
        },
        "handler.RecordPaymentRequest": {
            "description": "Payment collected by an officer",
            "type": "object",
            "required": ["mode"],
            "properties": {
                "amount": {"type": "string", "example": "1500.00"},
                "mode": {"type": "string", "enum": ["CASH", "CHEQUE", "UPI", "CARD"], "example": "CASH"},
                "remarks": {"type": "string", "maxLength": 500}
            }
        },
        "handler.CreateGatewayOrderRequest": {
            "description": "Online payment order request",
            "type": "object",
            "properties": {
                "amount": {"type": "string", "example": "1500.00"}
            }
        },
        "handler.PresignProofRequest": {
            "description": "Presigned proof upload request",
            "type": "object",
            "required": ["content_type", "demand_id", "file_name"],
            "properties": {
                "demand_id": {"type": "integer", "example": 42},
                "file_name": {"type": "string", "maxLength": 255, "example": "rebate-order.pdf"},
                "content_type": {"type": "string", "enum": ["application/pdf", "image/jpeg", "image/png"]}
            }
        },
        "handler.GatewayCallbackRequest": {
            "description": "Gateway payment callback",
            "type": "object",
            "properties": {
                "order_id": {"type": "string"},
                "payment_id": {"type": "string"},
                "signature": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "MTax Ledger API",
	Description:      "Financial ledger of the municipal tax system: adjustments, payment distribution and reconciliation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
