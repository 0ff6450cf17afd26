package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Timing configuration, class timetables and extra sessions with teacher conflict detection",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timing", "description": "Bell schedule configuration and compiled slots"},
        {"name": "Timetable", "description": "Class timetables, completion, conflicts and export"},
        {"name": "Extra Sessions", "description": "Ad hoc sessions outside the regular grid"}
    ],
    "paths": {
        "/academic-years/{yearId}/timing-config": {
            "get": {
                "tags": ["Timing"],
                "summary": "Get timing configuration",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "classSectionId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not configured", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timing"],
                "summary": "Save timing configuration",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimingConfigRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict or busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Malformed configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/slots": {
            "get": {
                "tags": ["Timing"],
                "summary": "List the slots of a day",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "classSectionId", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string", "enum": ["MON", "TUE", "WED", "THU", "FRI", "SAT"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/classes/{classId}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get a class timetable",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"$ref": "#/parameters/classId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Timetable"],
                "summary": "Replace a class timetable",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"$ref": "#/parameters/classId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Teacher double booked or busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/classes/{classId}/timetable/grid": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get the merged timetable grid",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"$ref": "#/parameters/classId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/classes/{classId}/timetable/completion": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Get timetable completion",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"$ref": "#/parameters/classId"},
                    {"name": "dayGroup", "in": "query", "type": "string", "enum": ["WEEKDAY", "SATURDAY"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/classes/{classId}/timetable/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Export a class timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"$ref": "#/parameters/classId"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/academic-years/{yearId}/conflicts": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Audit teacher double bookings of a year",
                "parameters": [
                    {"$ref": "#/parameters/yearId"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/extra-sessions": {
            "get": {
                "tags": ["Extra Sessions"],
                "summary": "List extra sessions",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "classSectionId", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Extra Sessions"],
                "summary": "Add an extra session",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExtraSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Teacher double booked or busy", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/academic-years/{yearId}/extra-sessions/{id}": {
            "delete": {
                "tags": ["Extra Sessions"],
                "summary": "Remove an extra session",
                "parameters": [
                    {"$ref": "#/parameters/yearId"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "yearId": {"name": "yearId", "in": "path", "required": true, "type": "string", "description": "Academic year ID or 'active'"},
        "classId": {"name": "classId", "in": "path", "required": true, "type": "string", "description": "Class section ID"}
    },
    "definitions": {
        "BreakInput": {
            "type": "object",
            "properties": {
                "afterPeriod": {"type": "integer"},
                "label": {"type": "string"},
                "durationMinutes": {"type": "integer"},
                "type": {"type": "string", "enum": ["SHORT_BREAK", "LUNCH_BREAK", "PRAYER", "OTHER"]}
            }
        },
        "TimingConfigInput": {
            "type": "object",
            "required": ["startTime"],
            "properties": {
                "startTime": {"type": "string", "example": "07:00"},
                "endTime": {"type": "string", "example": "13:30"},
                "periodDurationMinutes": {"type": "integer"},
                "totalPeriods": {"type": "integer"},
                "breaks": {"type": "array", "items": {"$ref": "#/definitions/BreakInput"}}
            }
        },
        "SaveTimingConfigRequest": {
            "type": "object",
            "properties": {
                "classSectionId": {"type": "string"},
                "weekday": {"$ref": "#/definitions/TimingConfigInput"},
                "saturday": {"$ref": "#/definitions/TimingConfigInput"},
                "saturdaySameAsWeekday": {"type": "boolean"}
            }
        },
        "TimetableEntryInput": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "periodSlotId": {"type": "string"},
                "teacherId": {"type": "string"},
                "subjectId": {"type": "string"}
            }
        },
        "SaveTimetableRequest": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/TimetableEntryInput"}}
            }
        },
        "CreateExtraSessionRequest": {
            "type": "object",
            "required": ["startTime", "endTime", "teacherId", "subjectId"],
            "properties": {
                "classSectionId": {"type": "string"},
                "day": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "teacherId": {"type": "string"},
                "subjectId": {"type": "string"},
                "reason": {"type": "string"}
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
