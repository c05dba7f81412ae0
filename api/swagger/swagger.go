package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tahfidz API",
        "description": "Tasmi' exam lifecycle, period recaps and document generation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Tasmi", "description": "Tasmi' exam registration, scheduling and grading"},
        {"name": "Recap", "description": "Attendance and grading recaps per period"},
        {"name": "Artifacts", "description": "Generated result sheets and recap documents"}
    ],
    "paths": {
        "/tasmi": {
            "get": {
                "tags": ["Tasmi"],
                "summary": "List Tasmi' registrations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "SCHEDULED", "REJECTED", "GRADED"]},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Tasmi"],
                "summary": "Register for a Tasmi' exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterTasmiRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}": {
            "get": {
                "tags": ["Tasmi"],
                "summary": "Get a Tasmi' registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}/schedule": {
            "post": {
                "tags": ["Tasmi"],
                "summary": "Schedule a pending registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleTasmiRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}/reject": {
            "post": {
                "tags": ["Tasmi"],
                "summary": "Reject a pending registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectTasmiRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}/grade": {
            "post": {
                "tags": ["Tasmi"],
                "summary": "Grade a scheduled exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeTasmiRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}/publish": {
            "post": {
                "tags": ["Tasmi"],
                "summary": "Publish a graded result to the student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/{id}/artifact": {
            "post": {
                "tags": ["Tasmi"],
                "summary": "Re-generate the result sheet of a graded exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/recap": {
            "get": {
                "tags": ["Recap"],
                "summary": "Graded Tasmi' exams held in a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/period"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/month"},
                    {"$ref": "#/parameters/semester"},
                    {"$ref": "#/parameters/year"},
                    {"$ref": "#/parameters/classId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tasmi/summary": {
            "get": {
                "tags": ["Recap"],
                "summary": "Tasmi' registration workload per class",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recap": {
            "get": {
                "tags": ["Recap"],
                "summary": "Attendance and grading recap for a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/period"},
                    {"$ref": "#/parameters/date"},
                    {"$ref": "#/parameters/month"},
                    {"$ref": "#/parameters/semester"},
                    {"$ref": "#/parameters/year"},
                    {"$ref": "#/parameters/classId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recap/export": {
            "post": {
                "tags": ["Recap"],
                "summary": "Build a recap and generate its document",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecapExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Artifact job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/download/{token}": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Download a generated document",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "period": {"name": "period", "in": "query", "required": true, "type": "string", "enum": ["DAILY", "MONTHLY", "SEMESTER"]},
        "date": {"name": "date", "in": "query", "type": "string", "format": "date"},
        "month": {"name": "month", "in": "query", "type": "integer", "minimum": 1, "maximum": 12},
        "semester": {"name": "semester", "in": "query", "type": "integer", "enum": [1, 2]},
        "year": {"name": "year", "in": "query", "type": "integer"},
        "classId": {"name": "classId", "in": "query", "type": "string"}
    },
    "definitions": {
        "RegisterTasmiRequest": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "juzLabel": {"type": "string"},
                "memorizedJuz": {"type": "integer", "minimum": 0, "maximum": 30},
                "preferredDate": {"type": "string", "format": "date"}
            },
            "required": ["studentId", "juzLabel", "memorizedJuz"]
        },
        "ScheduleTasmiRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "time": {"type": "string", "example": "08:30"}
            },
            "required": ["date", "time"]
        },
        "RejectTasmiRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            },
            "required": ["reason"]
        },
        "GradeTasmiRequest": {
            "type": "object",
            "properties": {
                "fluency": {"type": "number", "minimum": 0, "maximum": 100},
                "tajwid": {"type": "number", "minimum": 0, "maximum": 100},
                "adab": {"type": "number", "minimum": 0, "maximum": 100},
                "rhythm": {"type": "number", "minimum": 0, "maximum": 100},
                "note": {"type": "string"},
                "publish": {"type": "boolean"}
            },
            "required": ["fluency", "tajwid", "adab", "rhythm"]
        },
        "RecapExportRequest": {
            "type": "object",
            "properties": {
                "period": {"type": "string", "enum": ["DAILY", "MONTHLY", "SEMESTER"]},
                "date": {"type": "string", "format": "date"},
                "month": {"type": "integer"},
                "semester": {"type": "integer"},
                "year": {"type": "integer"},
                "classId": {"type": "string"},
                "format": {"type": "string", "enum": ["pdf", "csv"]}
            },
            "required": ["period"]
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
                "status": {"type": "integer"}
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
