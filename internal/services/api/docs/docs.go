// Package docs holds the OpenAPI document of the HTTP API and registers it with swag
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "tags": [
        {
            "name": "Meta"
        },
        {
            "name": "Tracking",
            "description": "Issue references from commits, pull requests and comments"
        },
        {
            "name": "Resubmit",
            "description": "Queue of comments whose delivery failed"
        }
    ],
    "paths": {
        "/meta/health": {
            "get": {
                "tags": [
                    "Meta"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/metahttp.HealthResponse"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    }
                }
            }
        },
        "/meta/ready": {
            "get": {
                "tags": [
                    "Meta"
                ],
                "summary": "Readiness probe with dependency checks",
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/metahttp.ReadyResponse"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    }
                }
            }
        },
        "/meta/version": {
            "get": {
                "tags": [
                    "Meta"
                ],
                "summary": "Build and version info",
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/version.BuildInfo"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    }
                }
            }
        },
        "/meta/service": {
            "get": {
                "tags": [
                    "Meta"
                ],
                "summary": "Service info and uptime",
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/metahttp.ServiceResponse"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/references": {
            "post": {
                "tags": [
                    "Tracking"
                ],
                "summary": "Process a referencing object on every tracker of its repository",
                "requestBody": {
                    "required": true,
                    "description": "Referencing object",
                    "content": {
                        "application/json": {
                            "schema": {
                                "$ref": "#/components/schemas/tracking.ReferenceInput"
                            }
                        }
                    }
                },
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/tracking.ReferenceResult"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "404": {
                        "description": "repository not found",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/references/issues": {
            "post": {
                "tags": [
                    "Tracking"
                ],
                "summary": "Issues referenced by an object, without side effects",
                "requestBody": {
                    "required": true,
                    "description": "Referencing object",
                    "content": {
                        "application/json": {
                            "schema": {
                                "$ref": "#/components/schemas/tracking.ReferenceInput"
                            }
                        }
                    }
                },
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/tracking.ReferenceResult"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "404": {
                        "description": "repository not found",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/repositories/{id}": {
            "delete": {
                "tags": [
                    "Tracking"
                ],
                "summary": "Purge the tracker state of a deleted repository",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "schema": {
                            "type": "string"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "purged"
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/resubmits": {
            "get": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Resubmit queues per tracker",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "type": "array",
                                                    "items": {
                                                        "$ref": "#/components/schemas/resubmit.QueueStatus"
                                                    }
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/resubmits/config": {
            "get": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Notification addresses",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/resubmit.Configuration"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Replace the notification addresses",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "requestBody": {
                    "required": true,
                    "description": "Configuration",
                    "content": {
                        "application/json": {
                            "schema": {
                                "$ref": "#/components/schemas/resubmit.Configuration"
                            }
                        }
                    }
                },
                "responses": {
                    "204": {
                        "description": "saved"
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/resubmits/{issueTracker}": {
            "get": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Queued comments of a tracker, oldest first",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "issueTracker",
                        "in": "path",
                        "required": true,
                        "schema": {
                            "type": "string"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "type": "array",
                                                    "items": {
                                                        "$ref": "#/components/schemas/resubmit.QueuedComment"
                                                    }
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/resubmits/{issueTracker}/resubmit": {
            "post": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Start a resubmit batch in the background",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "issueTracker",
                        "in": "path",
                        "required": true,
                        "schema": {
                            "type": "string"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "accepted",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "allOf": [
                                        {
                                            "$ref": "#/components/schemas/httpkit.Envelope"
                                        },
                                        {
                                            "type": "object",
                                            "properties": {
                                                "data": {
                                                    "$ref": "#/components/schemas/resubmit.Accepted"
                                                }
                                            }
                                        }
                                    ]
                                }
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    },
                    "429": {
                        "description": "backlog full",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/issue-tracker/resubmits/{issueTracker}/clear": {
            "post": {
                "tags": [
                    "Resubmit"
                ],
                "summary": "Drop every queued comment of a tracker",
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "issueTracker",
                        "in": "path",
                        "required": true,
                        "schema": {
                            "type": "string"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "cleared"
                    },
                    "401": {
                        "description": "unauthorized",
                        "content": {
                            "application/json": {
                                "schema": {
                                    "$ref": "#/components/schemas/httpkit.Envelope"
                                }
                            }
                        }
                    }
                }
            }
        }
    },
    "components": {
        "schemas": {
            "httpkit.Envelope": {
                "type": "object",
                "properties": {
                    "status_code": {
                        "type": "integer",
                        "example": 200
                    },
                    "status": {
                        "type": "string",
                        "example": "OK"
                    },
                    "code": {
                        "type": "integer"
                    },
                    "error": {
                        "type": "string"
                    },
                    "field": {
                        "type": "string"
                    },
                    "request_id": {
                        "type": "string"
                    },
                    "data": {}
                }
            },
            "metahttp.HealthResponse": {
                "type": "object",
                "properties": {
                    "ok": {
                        "type": "boolean",
                        "example": true
                    },
                    "service": {
                        "type": "string",
                        "example": "issuebridge-api"
                    },
                    "started": {
                        "type": "string",
                        "example": "2025-09-03T13:00:00Z"
                    },
                    "now": {
                        "type": "string",
                        "example": "2025-09-03T13:05:00Z"
                    }
                }
            },
            "metahttp.ReadyCheck": {
                "type": "object",
                "properties": {
                    "name": {
                        "type": "string",
                        "example": "pg"
                    },
                    "status": {
                        "type": "string",
                        "example": "ok"
                    },
                    "error": {
                        "type": "string"
                    }
                }
            },
            "metahttp.ReadyResponse": {
                "type": "object",
                "properties": {
                    "status": {
                        "type": "string",
                        "example": "ok"
                    },
                    "checks": {
                        "type": "array",
                        "items": {
                            "$ref": "#/components/schemas/metahttp.ReadyCheck"
                        }
                    },
                    "now": {
                        "type": "string",
                        "example": "2025-09-03T13:05:00Z"
                    }
                }
            },
            "metahttp.ServiceResponse": {
                "type": "object",
                "properties": {
                    "name": {
                        "type": "string",
                        "example": "issuebridge-api"
                    },
                    "started": {
                        "type": "string",
                        "example": "2025-09-03T13:00:00Z"
                    },
                    "uptime": {
                        "type": "integer",
                        "example": 300
                    }
                }
            },
            "version.BuildInfo": {
                "type": "object",
                "properties": {
                    "service": {
                        "type": "string",
                        "example": "issuebridge-api"
                    },
                    "version": {
                        "type": "string",
                        "example": "dev"
                    },
                    "commit": {
                        "type": "string",
                        "example": "none"
                    },
                    "date": {
                        "type": "string",
                        "example": "unknown"
                    }
                }
            },
            "tracking.ContentInput": {
                "type": "object",
                "properties": {
                    "type": {
                        "type": "string",
                        "example": "description",
                        "maxLength": 64
                    },
                    "value": {
                        "type": "string",
                        "example": "ABC-42 fixed the login redirect",
                        "maxLength": 65536
                    }
                },
                "required": [
                    "type"
                ]
            },
            "tracking.PersonInput": {
                "type": "object",
                "properties": {
                    "name": {
                        "type": "string",
                        "example": "jdoe",
                        "maxLength": 200
                    },
                    "display_name": {
                        "type": "string",
                        "example": "Jane Doe",
                        "maxLength": 200
                    },
                    "mail": {
                        "type": "string",
                        "example": "jane@example.com",
                        "format": "email"
                    }
                },
                "required": [
                    "name"
                ]
            },
            "tracking.ReferenceInput": {
                "type": "object",
                "properties": {
                    "repository_id": {
                        "type": "string",
                        "example": "repo-1",
                        "maxLength": 200
                    },
                    "type": {
                        "type": "string",
                        "example": "changeset",
                        "enum": [
                            "changeset",
                            "pull-request",
                            "comment"
                        ]
                    },
                    "id": {
                        "type": "string",
                        "example": "9f2c1e0",
                        "maxLength": 200
                    },
                    "author": {
                        "$ref": "#/components/schemas/tracking.PersonInput"
                    },
                    "contributors": {
                        "type": "object",
                        "additionalProperties": {
                            "type": "array",
                            "items": {
                                "$ref": "#/components/schemas/tracking.PersonInput"
                            }
                        }
                    },
                    "date": {
                        "type": "string",
                        "format": "date-time"
                    },
                    "content": {
                        "type": "array",
                        "minItems": 1,
                        "maxItems": 32,
                        "items": {
                            "$ref": "#/components/schemas/tracking.ContentInput"
                        }
                    },
                    "link": {
                        "type": "string",
                        "example": "https://scm.example.com/repo-1/commits/9f2c1e0",
                        "format": "uri"
                    },
                    "triggers_state_change": {
                        "type": "boolean",
                        "example": true
                    }
                },
                "required": [
                    "repository_id",
                    "type",
                    "id",
                    "content"
                ]
            },
            "tracking.IssueLink": {
                "type": "object",
                "properties": {
                    "key": {
                        "type": "string",
                        "example": "ABC-42"
                    },
                    "link": {
                        "type": "string",
                        "example": "https://jira.example.com/browse/ABC-42"
                    }
                }
            },
            "tracking.ReferenceResult": {
                "type": "object",
                "properties": {
                    "issues": {
                        "type": "array",
                        "items": {
                            "$ref": "#/components/schemas/tracking.IssueLink"
                        }
                    }
                }
            },
            "resubmit.QueueStatus": {
                "type": "object",
                "properties": {
                    "issue_tracker": {
                        "type": "string",
                        "example": "jira"
                    },
                    "queue_size": {
                        "type": "integer",
                        "example": 3
                    },
                    "in_progress": {
                        "type": "boolean",
                        "example": false
                    }
                }
            },
            "resubmit.QueuedComment": {
                "type": "object",
                "properties": {
                    "repository_id": {
                        "type": "string",
                        "example": "repo-1"
                    },
                    "issue_tracker": {
                        "type": "string",
                        "example": "jira"
                    },
                    "issue_key": {
                        "type": "string",
                        "example": "ABC-42"
                    },
                    "comment": {
                        "type": "string",
                        "example": "Referenced by changeset 9f2c1e0"
                    },
                    "retries": {
                        "type": "integer",
                        "example": 0
                    },
                    "date": {
                        "type": "string",
                        "format": "date-time"
                    }
                }
            },
            "resubmit.Configuration": {
                "type": "object",
                "properties": {
                    "addresses": {
                        "type": "array",
                        "maxItems": 50,
                        "items": {
                            "type": "string",
                            "example": "ops@example.com",
                            "format": "email"
                        }
                    }
                }
            },
            "resubmit.Accepted": {
                "type": "object",
                "properties": {
                    "batch_id": {
                        "type": "string",
                        "example": "0b8f3f0e-5c2e-4e0f-9a59-2b1f9f3b9d61"
                    },
                    "issue_tracker": {
                        "type": "string",
                        "example": "jira"
                    }
                }
            }
        },
        "securitySchemes": {
            "BearerAuth": {
                "type": "http",
                "scheme": "bearer",
                "description": "CORE_API_ADMIN_TOKEN"
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Title:            "IssueBridge API",
	Description:      "Links commits, pull requests and comments to issue tracker keys and redelivers failed comments",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
