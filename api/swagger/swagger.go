package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hall Matrix API",
        "description": "Exam hall seat allocation service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Allocations", "description": "Seat allocation runs and committed plans"},
        {"name": "Reference", "description": "Students, halls, subjects and invigilators"},
        {"name": "System", "description": "Operational endpoints"}
    ],
    "paths": {
        "/allocations/generate": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Generate seat allocation",
                "description": "Computes a seating plan for one exam date and session. Unless dryRun is set the plan replaces the committed records of that session.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateAllocationRequest"}}
                ],
                "responses": {
                    "200": {"description": "Preview", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Another run holds the session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No students, capacity shortage or adjacency unsatisfiable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations": {
            "get": {
                "tags": ["Allocations"],
                "summary": "List committed seat allocations",
                "produces": ["application/json", "text/csv"],
                "parameters": [
                    {"name": "examDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "session", "in": "query", "type": "string"},
                    {"name": "hallNo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/runs": {
            "get": {
                "tags": ["Allocations"],
                "summary": "List allocation runs",
                "parameters": [
                    {"name": "examDate", "in": "query", "type": "string", "format": "date"},
                    {"name": "session", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Reference"],
                "summary": "List registered students",
                "parameters": [
                    {"name": "subjectCode", "in": "query", "type": "string"},
                    {"name": "dept", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/halls": {
            "get": {
                "tags": ["Reference"],
                "summary": "List exam halls in allocation order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Reference"],
                "summary": "List subjects",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/invigilators": {
            "get": {
                "tags": ["Reference"],
                "summary": "List invigilators",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateAllocationRequest": {
            "type": "object",
            "required": ["subjectCodes", "examDate", "session"],
            "properties": {
                "subjectCodes": {"type": "array", "items": {"type": "string"}},
                "examDate": {"type": "string", "format": "date"},
                "session": {"type": "string", "example": "FN"},
                "dryRun": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
