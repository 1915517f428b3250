package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Scheduler API",
        "description": "Automatic exam arrangement: scheduling runs, conflict checks, teacher constraints and adjustment requests.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ExamArrangements", "description": "Scheduling runs, manual moves and export"},
        {"name": "Conflicts", "description": "Room, teacher and class double-booking checks"},
        {"name": "Teachers", "description": "Per-teacher exam constraints"},
        {"name": "AdjustmentRequests", "description": "Teacher change requests and admin review"}
    ],
    "paths": {
        "/exam-arrangements": {
            "get": {
                "tags": ["ExamArrangements"],
                "summary": "List exam arrangements",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exam-arrangements/schedule": {
            "post": {
                "tags": ["ExamArrangements"],
                "summary": "Run the exam scheduler",
                "description": "Replaces every stored arrangement with a fresh schedule. A concurrent run is rejected with 409.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ScheduleExamsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Run in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-arrangements/schedule/jobs": {
            "post": {
                "tags": ["ExamArrangements"],
                "summary": "Queue a background scheduling run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ScheduleExamsRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-arrangements/schedule/jobs/{id}": {
            "get": {
                "tags": ["ExamArrangements"],
                "summary": "Poll a background scheduling run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-arrangements/{id}": {
            "patch": {
                "tags": ["ExamArrangements"],
                "summary": "Move one exam arrangement",
                "description": "Conflicting moves return 409 with the blocking arrangements in meta.conflicts.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AdjustArrangementRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-arrangements/export": {
            "get": {
                "tags": ["ExamArrangements"],
                "summary": "Download exam arrangements",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        },
        "/conflicts/check": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Check a candidate booking for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictCheckRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/conflicts/suggestions": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "Suggest alternative slots for a teacher and class",
                "parameters": [
                    {"name": "teacher", "in": "query", "required": true, "type": "string"},
                    {"name": "classSection", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/rooms/available": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List rooms free at a date and slot",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "timeSlot", "in": "query", "required": true, "type": "string"},
                    {"name": "minCapacity", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/{teacher}/constraints": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Get a teacher's exam constraints",
                "parameters": [
                    {"name": "teacher", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Replace a teacher's exam constraints",
                "parameters": [
                    {"name": "teacher", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherConstraintRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/{teacher}/summary": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Per-day exam summary for a teacher",
                "parameters": [
                    {"name": "teacher", "in": "path", "required": true, "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers/{teacher}/suggested-times": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Which canonical slots a teacher may take on a date",
                "parameters": [
                    {"name": "teacher", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/adjustment-requests": {
            "get": {
                "tags": ["AdjustmentRequests"],
                "summary": "List adjustment requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                    {"name": "requester", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["AdjustmentRequests"],
                "summary": "Submit an adjustment request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAdjustmentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/adjustment-requests/{id}": {
            "get": {
                "tags": ["AdjustmentRequests"],
                "summary": "Get an adjustment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/adjustment-requests/{id}/approve": {
            "post": {
                "tags": ["AdjustmentRequests"],
                "summary": "Approve and apply an adjustment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal now conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/adjustment-requests/{id}/reject": {
            "post": {
                "tags": ["AdjustmentRequests"],
                "summary": "Reject an adjustment request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewAdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleExamsRequest": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "example": "2025-05-12"},
                "endDate": {"type": "string", "example": "2025-05-18"},
                "slotsPerDay": {"type": "integer", "enum": [4, 5]}
            }
        },
        "AdjustArrangementRequest": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "date": {"type": "string"},
                "timeSlot": {"type": "string", "example": "10:30-12:30"}
            }
        },
        "ConflictCheckRequest": {
            "type": "object",
            "required": ["roomId", "teacher", "classSection", "date", "timeSlot"],
            "properties": {
                "roomId": {"type": "string"},
                "teacher": {"type": "string"},
                "classSection": {"type": "string"},
                "date": {"type": "string"},
                "timeSlot": {"type": "string"},
                "excludeId": {"type": "string"}
            }
        },
        "TeacherConstraintRequest": {
            "type": "object",
            "required": ["maxExamsPerDay"],
            "properties": {
                "maxExamsPerDay": {"type": "integer", "minimum": 1},
                "noEveningExams": {"type": "boolean"},
                "noWeekendExams": {"type": "boolean"},
                "unavailableDates": {"type": "array", "items": {"type": "string"}},
                "unavailableTimes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateAdjustmentRequest": {
            "type": "object",
            "required": ["arrangementId", "requester", "newDate", "newTime", "newRoomId", "reason"],
            "properties": {
                "arrangementId": {"type": "string"},
                "requester": {"type": "string"},
                "newDate": {"type": "string"},
                "newTime": {"type": "string"},
                "newRoomId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReviewAdjustmentRequest": {
            "type": "object",
            "required": ["reviewer"],
            "properties": {
                "reviewer": {"type": "string"},
                "note": {"type": "string"}
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
