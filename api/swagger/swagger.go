package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Degree Pathway API",
        "description": "Course records, eligibility-aware recommendations and degree audit",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Courses", "description": "Degree requirement records"},
        {"name": "Recommendations", "description": "Random eligible course picks"},
        {"name": "Audit", "description": "Credit totals, graduation estimate and exports"}
    ],
    "paths": {
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "day", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "time", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "status", "in": "query", "type": "array", "items": {"$ref": "#/definitions/CourseStatus"}, "collectionFormat": "multi"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid filter", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get a course",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{code}/status": {
            "patch": {
                "tags": ["Courses"],
                "summary": "Set a course status",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{code}/{action}": {
            "post": {
                "tags": ["Courses"],
                "summary": "Enroll, plan, unenroll or remove a course",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "action", "in": "path", "required": true, "type": "string", "enum": ["enroll", "plan", "unenroll", "remove"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Wrong source status or prerequisite not met", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recommendations": {
            "post": {
                "tags": ["Recommendations"],
                "summary": "Recommend and enroll courses",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RecommendRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit/summary": {
            "get": {
                "tags": ["Audit"],
                "summary": "Credit totals and graduation estimate",
                "parameters": [
                    {"name": "credits_per_semester", "in": "query", "type": "number"},
                    {"name": "months_per_semester", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid argument", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/audit/export": {
            "get": {
                "tags": ["Audit"],
                "summary": "Download the degree audit",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "store", "in": "query", "type": "boolean"},
                    {"name": "credits_per_semester", "in": "query", "type": "number"},
                    {"name": "months_per_semester", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Rendered audit", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "CourseStatus": {
            "type": "string",
            "enum": ["Completed units", "In-progress", "Planned", "Remaining units"]
        },
        "Course": {
            "type": "object",
            "properties": {
                "course_code": {"type": "string"},
                "course_title": {"type": "string"},
                "credits": {"type": "number"},
                "category": {"type": "string"},
                "day": {"type": "string"},
                "time": {"type": "string"},
                "prerequisite": {"type": "string"},
                "recommended": {"type": "boolean"},
                "status": {"$ref": "#/definitions/CourseStatus"}
            }
        },
        "SetStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"$ref": "#/definitions/CourseStatus"}
            }
        },
        "RecommendRequest": {
            "type": "object",
            "properties": {
                "max_count": {"type": "integer", "minimum": 1, "maximum": 50},
                "seed": {"type": "integer", "format": "int64"}
            }
        },
        "GraduationEstimate": {
            "type": "object",
            "properties": {
                "credits_per_semester": {"type": "number"},
                "months_per_semester": {"type": "integer"},
                "semesters_remaining": {"type": "integer"},
                "date": {"type": "string", "format": "date"},
                "label": {"type": "string"}
            }
        },
        "AuditSummary": {
            "type": "object",
            "properties": {
                "total_credits": {"type": "number"},
                "completed_credits": {"type": "number"},
                "in_progress_credits": {"type": "number"},
                "planned_credits": {"type": "number"},
                "remaining_credits": {"type": "number"},
                "credits_by_status": {"type": "object", "additionalProperties": {"type": "number"}},
                "percent_complete": {"type": "number"},
                "graduation": {"$ref": "#/definitions/GraduationEstimate"},
                "dangling_prerequisites": {"type": "array", "items": {"type": "string"}}
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
