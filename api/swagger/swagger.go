package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Vinculación API",
        "description": "Enrollment and attendance engine for university extension projects",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Projects", "description": "Project lifecycle and catalog"},
        {"name": "Enrollments", "description": "Student enrollment and staff rosters"},
        {"name": "Processes", "description": "Project stages"},
        {"name": "Sessions", "description": "Dated session slots"},
        {"name": "CheckIn", "description": "QR and manual attendance capture"},
        {"name": "Attendance", "description": "Validation, justification and reports"},
        {"name": "Lookups", "description": "Read-only academic catalog"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}}
            }
        },
        "/vm/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "List projects",
                "parameters": [
                    {"name": "epSiteId", "in": "query", "type": "string"},
                    {"name": "periodId", "in": "query", "type": "string"},
                    {"name": "state", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Projects"],
                "summary": "Create a project",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Code or level already taken"},
                    "422": {"description": "Rule violation"}
                }
            }
        },
        "/vm/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Project with processes and sessions",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/vm/projects/{id}/publish": {
            "post": {
                "tags": ["Projects"],
                "summary": "Publish a planned project",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state"}}
            }
        },
        "/vm/projects/{id}/close": {
            "post": {
                "tags": ["Projects"],
                "summary": "Close an in-progress project",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state"}}
            }
        },
        "/vm/projects/{id}/cancel": {
            "post": {
                "tags": ["Projects"],
                "summary": "Cancel a project",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state"}}
            }
        },
        "/vm/projects/available-levels": {
            "get": {
                "tags": ["Projects"],
                "summary": "Levels still open for a linked project",
                "parameters": [
                    {"name": "epSiteId", "in": "query", "type": "string", "required": true},
                    {"name": "periodId", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/projects/{id}/processes": {
            "get": {
                "tags": ["Processes"],
                "summary": "List processes of a project",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Processes"],
                "summary": "Add a process to a planned project",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Project not planned"}}
            }
        },
        "/vm/processes/{id}": {
            "put": {
                "tags": ["Processes"],
                "summary": "Edit a process",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Project not planned"}}
            },
            "delete": {
                "tags": ["Processes"],
                "summary": "Remove a process",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Project not planned"}}
            }
        },
        "/vm/processes/{id}/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions of a process",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Schedule sessions atomically",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Project not planned"},
                    "422": {"description": "Slot outside the project period"}
                }
            }
        },
        "/vm/sessions/{id}": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a session",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Sessions"],
                "summary": "Reschedule a session",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Remove a session",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/vm/projects/{id}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Roster of enrolled participants",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll the authenticated student",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "201": {"description": "Enrolled"},
                    "422": {"description": "Eligibility rule violation"}
                }
            }
        },
        "/vm/projects/{id}/candidates": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Eligibility preview for the EP-site's students",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/me/projects": {
            "get": {
                "tags": ["Projects"],
                "summary": "Projects visible to the authenticated student",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/sessions/{id}/qr": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Open a QR check-in window",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "maxUses", "in": "query", "type": "integer"}
                ],
                "responses": {"201": {"description": "Window opened"}, "422": {"description": "Window not active"}}
            }
        },
        "/vm/sessions/{id}/manual-window": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Open a manual check-in window",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"201": {"description": "Window opened"}, "422": {"description": "Window not active"}}
            }
        },
        "/vm/check-in/qr": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Record attendance from a QR scan",
                "responses": {
                    "201": {"description": "Recorded"},
                    "422": {"description": "Invalid token, exhausted capacity or duplicate"}
                }
            }
        },
        "/vm/check-in/manual": {
            "post": {
                "tags": ["CheckIn"],
                "summary": "Record attendance on behalf of a student",
                "responses": {
                    "201": {"description": "Recorded"},
                    "422": {"description": "Rule violation"}
                }
            }
        },
        "/vm/sessions/{id}/attendances": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance rows of a session",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/sessions/{id}/roster": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Full roster with per-student attendance",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/sessions/{id}/attendances/report": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Export the session attendance sheet",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/attendances/justify": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record or upgrade a justified absence",
                "responses": {"200": {"description": "OK"}, "422": {"description": "Rule violation"}}
            }
        },
        "/vm/sessions/{id}/validate": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Validate a session's attendance records",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {"200": {"description": "Per-id outcomes"}}
            }
        },
        "/vm/lookups/periods": {
            "get": {
                "tags": ["Lookups"],
                "summary": "List academic periods",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/lookups/periods/current": {
            "get": {
                "tags": ["Lookups"],
                "summary": "Current academic period",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/vm/lookups/ep-sites": {
            "get": {
                "tags": ["Lookups"],
                "summary": "List EP-sites",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
                "ok": {"type": "boolean"},
                "code": {"type": "string"},
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
