package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the broker pack API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>wipefix broker packs - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "wipefix-broker-packs", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "adminToken": { "type": "http", "scheme": "bearer" } },
    "schemas": {
      "BrokerEntry": {
        "type": "object",
        "required": ["id", "name", "opt_out_url"],
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "opt_out_url": { "type": "string" },
          "form_type": { "type": "string", "example": "web", "default": "web" },
          "required_fields": { "type": "array", "items": { "type": "string" } },
          "verification_steps": { "type": "string" },
          "response_time": { "type": "string" },
          "follow_up_guidance": { "type": "string" }
        }
      },
      "BrokerPack": {
        "type": "object",
        "properties": {
          "version": { "type": "string" },
          "created_at": { "type": "string" },
          "updated_at": { "type": "string" },
          "brokers": { "type": "array", "items": { "$ref": "#/components/schemas/BrokerEntry" } },
          "notes": { "type": "string" }
        }
      },
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    }
  },
  "paths": {
    "/api/broker-packs": {
      "post": {
        "summary": "Publish a new immutable broker pack",
        "security": [{ "adminToken": [] }],
        "requestBody": { "content": { "application/json": { "schema": {
          "type": "object",
          "required": ["version", "brokers"],
          "properties": {
            "version": { "type": "string" },
            "brokers": { "type": "array", "items": { "$ref": "#/components/schemas/BrokerEntry" } },
            "notes": { "type": "string" },
            "updated_at": { "type": "string" }
          }
        } } } },
        "responses": {
          "201": { "description": "pack created", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/BrokerPack" } } } },
          "400": { "description": "invalid pack" },
          "401": { "description": "missing or wrong admin token" },
          "409": { "description": "version already exists" },
          "500": { "description": "server misconfigured" },
          "503": { "description": "storage unavailable" }
        }
      }
    },
    "/api/broker-packs/latest": {
      "get": { "summary": "Most recently created pack", "responses": { "200": { "description": "pack" }, "404": { "description": "no packs" } } }
    },
    "/api/broker-packs/{version}": {
      "get": {
        "summary": "Pack by exact version",
        "parameters": [{ "name": "version", "in": "path", "required": true, "schema": { "type": "string" } }],
        "responses": { "200": { "description": "pack" }, "404": { "description": "unknown version" } }
      }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
