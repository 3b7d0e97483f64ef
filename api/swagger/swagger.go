package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Substitute API",
        "description": "Weekly timetable, substitute proposals, substitution history and behaviour reports",
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
        {"name": "Auth", "description": "Staff login"},
        {"name": "Schedule", "description": "Weekly timetable (orario)"},
        {"name": "Substitutions", "description": "Absence review, validation and commit"},
        {"name": "History", "description": "Committed substitutions and absences"},
        {"name": "Backups", "description": "Spreadsheet backups"},
        {"name": "Behavior", "description": "Student behaviour reports"},
        {"name": "Metrics", "description": "Operational counters"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate staff",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "data is a LoginResponse", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Account inactive", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user, reloaded from the database",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "data is a UserInfo", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Account inactive", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Runtime counters for the substitution workflow",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List timetable entries",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "className", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Schedule"],
                "summary": "Add one timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Schedule"],
                "summary": "Replace the whole timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReplaceScheduleRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/{id}": {
            "delete": {
                "tags": ["Schedule"],
                "summary": "Delete a timetable entry",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/schedule/import": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Import a CSV or XLSX timetable",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [{"name": "file", "in": "formData", "required": true, "type": "file"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Download the timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/schedule/pivot": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Teacher by slot grid",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "mode", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/teachers": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Distinct teachers",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/schedule/classes": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Distinct classes",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/substitutions/proposals": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Propose substitutes for an absence date",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeSubstitutionsRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/substitutions/drafts/{id}": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Get a draft",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found or expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/drafts/{id}/assignments": {
            "put": {
                "tags": ["Substitutions"],
                "summary": "Override chosen substitutes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAssignmentsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/substitutions/drafts/{id}/validate": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Check a draft for double bookings",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Validated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/drafts/{id}/commit": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Append a validated draft to history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["append", "replace"]},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/CommitSubstitutionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Draft not validated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Date already in history", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/drafts/{id}/announcement": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Staff announcement text",
                "security": [{"BearerAuth": []}],
                "produces": ["text/plain"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/substitutions/drafts/{id}/announcement/publish": {
            "post": {
                "tags": ["Substitutions"],
                "summary": "Resend the announcement to the staff chat",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "Publishing not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/drafts/{id}/export.pdf": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Printable substitution sheet",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/history/substitutions": {
            "get": {
                "tags": ["History"],
                "summary": "List committed substitutions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history/absences": {
            "get": {
                "tags": ["History"],
                "summary": "List recorded absences",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacher", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history/statistics": {
            "get": {
                "tags": ["History"],
                "summary": "Per-teacher substitution and absence totals",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history/dates/{date}": {
            "delete": {
                "tags": ["History"],
                "summary": "Remove every history row for a date",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "date", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history/reset": {
            "post": {
                "tags": ["History"],
                "summary": "Empty a history table",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetHistoryRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "412": {"description": "Confirmation missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/backups": {
            "post": {
                "tags": ["Backups"],
                "summary": "Create a spreadsheet backup",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/backups/{token}": {
            "get": {
                "tags": ["Backups"],
                "summary": "Download a backup with a signed token",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/behavior-reports": {
            "get": {
                "tags": ["Behavior"],
                "summary": "List behaviour reports",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "student", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "criticality", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Behavior"],
                "summary": "File a behaviour report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBehaviorReportRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/behavior-reports/{id}": {
            "delete": {
                "tags": ["Behavior"],
                "summary": "Delete a behaviour report",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/behavior-reports/statistics": {
            "get": {
                "tags": ["Behavior"],
                "summary": "Report counts by criticality and student",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/behavior-reports/export": {
            "get": {
                "tags": ["Behavior"],
                "summary": "Download filtered reports as CSV",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "definitions": {
        "UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "TEACHER"]},
                "teacher_name": {"type": "string"}
            }
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "issued_at": {"type": "string", "format": "date-time"},
                "user": {"$ref": "#/definitions/UserInfo"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ScheduleEntryRequest": {
            "type": "object",
            "required": ["teacher", "day", "period", "className", "lessonType"],
            "properties": {
                "teacher": {"type": "string"},
                "day": {"type": "string", "enum": ["Lunedì", "Martedì", "Mercoledì", "Giovedì", "Venerdì"]},
                "period": {"type": "string", "enum": ["I", "II", "III", "IV", "V", "VI"]},
                "className": {"type": "string"},
                "lessonType": {"type": "string"},
                "exclude": {"type": "boolean"}
            }
        },
        "ReplaceScheduleRequest": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/ScheduleEntryRequest"}}
            }
        },
        "ProposeSubstitutionsRequest": {
            "type": "object",
            "required": ["date"],
            "properties": {
                "date": {"type": "string", "format": "date"},
                "absentTeachers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "AssignmentOverride": {
            "type": "object",
            "required": ["period", "className", "absentTeacher"],
            "properties": {
                "period": {"type": "string"},
                "className": {"type": "string"},
                "absentTeacher": {"type": "string"},
                "substitute": {"type": "string"}
            }
        },
        "UpdateAssignmentsRequest": {
            "type": "object",
            "required": ["assignments"],
            "properties": {
                "assignments": {"type": "array", "items": {"$ref": "#/definitions/AssignmentOverride"}}
            }
        },
        "CommitSubstitutionsRequest": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["append", "replace"]}
            }
        },
        "ResetHistoryRequest": {
            "type": "object",
            "required": ["table"],
            "properties": {
                "table": {"type": "string", "enum": ["storico", "assenze"]},
                "confirm": {"type": "boolean"}
            }
        },
        "CreateBehaviorReportRequest": {
            "type": "object",
            "required": ["studentName", "subject", "criticality"],
            "properties": {
                "studentName": {"type": "string"},
                "subject": {"type": "string"},
                "criticality": {"type": "string"},
                "reportDate": {"type": "string", "format": "date"},
                "teacher": {"type": "string"},
                "notes": {"type": "string"}
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
