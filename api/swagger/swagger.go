package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Facemark API",
        "description": "Face recognition attendance service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Operator authentication"},
        {"name": "Students", "description": "Student roster management"},
        {"name": "Enrollment", "description": "Face image dataset management"},
        {"name": "Training", "description": "Classifier training pipeline"},
        {"name": "Recognition", "description": "Face identification and marking"},
        {"name": "Attendance", "description": "Attendance ledger"},
        {"name": "Export", "description": "Report exports"},
        {"name": "Notifications", "description": "Guardian email delivery"},
        {"name": "Live", "description": "Live camera stream"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive a token pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange a refresh token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Student id already registered"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get student detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Students"],
                "summary": "Update a student",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Remove a student and their face images",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/students/{id}/faces": {
            "get": {
                "tags": ["Enrollment"],
                "summary": "Report stored face image count",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Enrollment"],
                "summary": "Upload face images",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "images", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"201": {"description": "Stored"}}
            },
            "delete": {
                "tags": ["Enrollment"],
                "summary": "Remove all face images",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/training/runs": {
            "post": {
                "tags": ["Training"],
                "summary": "Start a training run",
                "responses": {
                    "202": {"description": "Accepted"},
                    "409": {"description": "A run is already in progress"}
                }
            }
        },
        "/training/status": {
            "get": {
                "tags": ["Training"],
                "summary": "Report training progress",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/recognition": {
            "post": {
                "tags": ["Recognition"],
                "summary": "Recognize a face and mark attendance",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "image", "in": "formData", "required": true, "type": "file"},
                    {"name": "date", "in": "formData", "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance records",
                "parameters": [
                    {"name": "student", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark attendance manually",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/day": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Present and absent roster for one day",
                "parameters": [{"name": "date", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/day/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Export the daily roster as CSV or PDF",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/attendance/stats": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance dashboard statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/cleanup": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Remove duplicate attendance rows",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/attendance/export": {
            "get": {
                "tags": ["Export"],
                "summary": "Export attendance as CSV or PDF",
                "parameters": [{"name": "format", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/notifications/attendance": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Email a guardian the student's presence state for a day",
                "responses": {
                    "202": {"description": "Queued"},
                    "503": {"description": "Mail delivery not configured"}
                }
            }
        },
        "/live/stream": {
            "get": {
                "tags": ["Live"],
                "summary": "Live annotated camera feed (MJPEG)",
                "responses": {
                    "200": {"description": "Stream"},
                    "503": {"description": "Live stream not running"}
                }
            }
        },
        "/live/status": {
            "get": {
                "tags": ["Live"],
                "summary": "Live sampler status",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["id", "full_name", "class_name"],
            "properties": {
                "id": {"type": "string"},
                "full_name": {"type": "string"},
                "class_name": {"type": "string"},
                "guardian_email": {"type": "string"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"},
                "date": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
