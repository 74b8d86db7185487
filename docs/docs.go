// Package docs registers the OpenAPI description served at /swagger/*any.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/plans": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Plans"],
                "summary": "List subscription plans",
                "operationId": "listPlans",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListPlansResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/vendors": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Vendors"],
                "summary": "Register a vendor",
                "operationId": "createVendor",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateVendorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Vendor"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/vendors/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Vendors"],
                "summary": "Get the calling vendor",
                "operationId": "getVendorMe",
                "parameters": [{"$ref": "#/parameters/VendorID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Vendor"}},
                    "401": {"description": "Missing vendor", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Vendor not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/vendors/me/deactivate": {
            "post": {
                "tags": ["Vendors"],
                "summary": "Deactivate the calling vendor",
                "operationId": "deactivateVendorMe",
                "parameters": [{"$ref": "#/parameters/VendorID"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Vendor not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/subscriptions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Subscribe to a plan",
                "operationId": "subscribe",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SubscribeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.SubscriptionView"}},
                    "403": {"description": "Vendor inactive", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Plan or vendor not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/subscriptions/current": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Get the current subscription",
                "operationId": "getCurrentSubscription",
                "parameters": [{"$ref": "#/parameters/VendorID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SubscriptionView"}},
                    "404": {"description": "No subscription", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/subscriptions/{id}/renew": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Renew a subscription",
                "operationId": "renewSubscription",
                "parameters": [{"$ref": "#/parameters/VendorID"}, {"$ref": "#/parameters/PathID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SubscriptionView"}},
                    "409": {"description": "Subscription not active", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/subscriptions/{id}/cancel": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Cancel a subscription",
                "operationId": "cancelSubscription",
                "parameters": [{"$ref": "#/parameters/VendorID"}, {"$ref": "#/parameters/PathID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SubscriptionView"}},
                    "404": {"description": "Subscription not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/subscriptions/{id}/auto-renewal": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Toggle auto-renewal",
                "operationId": "setAutoRenewal",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"$ref": "#/parameters/PathID"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.AutoRenewalRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SubscriptionView"}}
                }
            }
        },
        "/quota": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Subscriptions"],
                "summary": "Quota usage per window",
                "operationId": "getQuota",
                "parameters": [{"$ref": "#/parameters/VendorID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.QuotaSnapshot"}},
                    "402": {"description": "Vendor not entitled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/topups": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["TopUps"],
                "summary": "Buy additional leads",
                "operationId": "buyTopUp",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.BuyTopUpRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.VendorAdditionalLeads"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/leads": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Submit a marketplace lead",
                "operationId": "createLead",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateLeadRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Lead"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/leads/direct": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Create a direct lead owned by the caller",
                "operationId": "createDirectLead",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateLeadRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Lead"}}
                }
            }
        },
        "/leads/marketplace": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Browse marketplace leads",
                "operationId": "listMarketplace",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"},
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "If-None-Match", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListLeadsResponse"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/leads/owned": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "List purchased and direct leads",
                "operationId": "listOwned",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListLeadsResponse"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/leads/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Get a lead",
                "operationId": "getLead",
                "parameters": [{"$ref": "#/parameters/VendorID"}, {"$ref": "#/parameters/PathID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.LeadView"}},
                    "404": {"description": "Lead not available", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/leads/{id}/purchase": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Leads"],
                "summary": "Purchase a lead",
                "operationId": "purchaseLead",
                "parameters": [
                    {"$ref": "#/parameters/VendorID"},
                    {"$ref": "#/parameters/PathID"},
                    {"name": "Idempotency-Key", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/handlers.PurchaseResponse"}},
                    "201": {"description": "Granted", "schema": {"$ref": "#/definitions/handlers.PurchaseResponse"}},
                    "402": {"description": "Not entitled", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Lead not available", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Already owned", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Quota exceeded or rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "Try again", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "parameters": {
        "VendorID": {"name": "X-Vendor-ID", "in": "header", "required": true, "type": "string"},
        "PathID": {"name": "id", "in": "path", "required": true, "type": "string"}
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "quota_exceeded_daily"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "handlers.CreateVendorRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string", "example": "Shree Steel Traders"}}
        },
        "handlers.SubscribeRequest": {
            "type": "object",
            "required": ["plan_id"],
            "properties": {"plan_id": {"type": "string", "example": "starter"}}
        },
        "handlers.AutoRenewalRequest": {
            "type": "object",
            "required": ["enabled"],
            "properties": {"enabled": {"type": "boolean"}}
        },
        "handlers.BuyTopUpRequest": {
            "type": "object",
            "required": ["leads"],
            "properties": {
                "leads": {"type": "integer", "example": 20},
                "amount": {"type": "number", "example": 99}
            }
        },
        "handlers.CreateLeadRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"},
                "quantity": {"type": "string"},
                "budget": {"type": "string"},
                "price": {"type": "number"},
                "buyer_name": {"type": "string"},
                "buyer_email": {"type": "string"},
                "buyer_phone": {"type": "string"}
            }
        },
        "handlers.ListPlansResponse": {
            "type": "object",
            "properties": {"plans": {"type": "array", "items": {"$ref": "#/definitions/domain.Plan"}}}
        },
        "handlers.ListLeadsResponse": {
            "type": "object",
            "properties": {
                "leads": {"type": "array", "items": {"$ref": "#/definitions/services.LeadView"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.PurchaseResponse": {
            "type": "object",
            "properties": {
                "purchase": {"$ref": "#/definitions/domain.LeadPurchase"},
                "lead": {"$ref": "#/definitions/services.LeadView"}
            }
        },
        "domain.Vendor": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Plan": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "daily_limit": {"type": "integer"},
                "weekly_limit": {"type": "integer"},
                "yearly_limit": {"type": "integer"},
                "duration_days": {"type": "integer"},
                "price": {"type": "number"}
            }
        },
        "domain.Lead": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"},
                "lead_type": {"type": "string", "enum": ["MARKETPLACE", "DIRECT"]},
                "created_at": {"type": "string"}
            }
        },
        "domain.LeadPurchase": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "vendor_id": {"type": "string"},
                "lead_id": {"type": "string"},
                "source": {"type": "string", "enum": ["quota", "topup"]},
                "purchased_at": {"type": "string"}
            }
        },
        "domain.VendorAdditionalLeads": {
            "type": "object",
            "properties": {
                "vendor_id": {"type": "string"},
                "leads_purchased": {"type": "integer"},
                "leads_remaining": {"type": "integer"},
                "amount_paid": {"type": "number"}
            }
        },
        "services.LeadView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "buyer_name": {"type": "string"},
                "buyer_email": {"type": "string"},
                "buyer_phone": {"type": "string"},
                "revealed": {"type": "boolean"},
                "acquired_at": {"type": "string"},
                "score": {"type": "number"},
                "visibility": {"type": "object"}
            }
        },
        "services.SubscriptionView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "plan_id": {"type": "string"},
                "status": {"type": "string"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "auto_renewal_enabled": {"type": "boolean"},
                "is_active": {"type": "boolean"},
                "days_remaining": {"type": "integer"}
            }
        },
        "services.QuotaSnapshot": {
            "type": "object",
            "properties": {
                "plan_id": {"type": "string"},
                "subscription_active": {"type": "boolean"},
                "topup_remaining": {"type": "integer"},
                "windows": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Lead Marketplace API",
	Description:      "Quota-gated lead marketplace: vendors subscribe to plans and purchase buyer leads exactly once.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
