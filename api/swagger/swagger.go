package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Training Admin API",
        "description": "Corporate training administration: target pools, quotas, assignments, change requests",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Employee login and session"},
        {"name": "Events", "description": "Training event setup"},
        {"name": "Pool", "description": "Target pool and assignment lifecycle"},
        {"name": "Quotas", "description": "Department quotas per schedule"},
        {"name": "Change Requests", "description": "Assignment change workflow"},
        {"name": "Exports", "description": "Roster export jobs"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependencies unavailable"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with employee id and birth date",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session info",
                "responses": {
                    "200": {"description": "Session claims", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid token"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List training events",
                "parameters": [
                    {"name": "templateId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "type": "string", "format": "date"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated events", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create a training event",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Event created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failure", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}": {
            "get": {
                "tags": ["Events"],
                "summary": "Event detail with date options",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Event detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/events/{id}/pool": {
            "get": {
                "tags": ["Pool"],
                "summary": "List target pool entries",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Pool entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{id}/pool/resolve": {
            "post": {
                "tags": ["Pool"],
                "summary": "Re-run target resolution for an event",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "schema": {"$ref": "#/definitions/ResolveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Resolution report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Event uses direct assignment"}
                }
            }
        },
        "/pool/{id}/exclude": {
            "post": {
                "tags": ["Pool"],
                "summary": "Exclude a pool entry",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExcludeRequest"}}
                ],
                "responses": {
                    "204": {"description": "Excluded"},
                    "409": {"description": "Entry already confirmed"}
                }
            }
        },
        "/pool/{id}/unexclude": {
            "post": {
                "tags": ["Pool"],
                "summary": "Return an excluded entry to the pool",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Restored"},
                    "409": {"description": "Entry not excluded"}
                }
            }
        },
        "/pool/{id}/assign": {
            "post": {
                "tags": ["Pool"],
                "summary": "Assign an entry to a schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "204": {"description": "Assigned"},
                    "409": {"description": "Entry not assignable"}
                }
            }
        },
        "/pool/confirm": {
            "post": {
                "tags": ["Pool"],
                "summary": "Confirm assigned entries in batch",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmRequest"}}
                ],
                "responses": {
                    "200": {"description": "Batch report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Selection contains non-assigned entries"}
                }
            }
        },
        "/date-options/{id}/quotas": {
            "get": {
                "tags": ["Quotas"],
                "summary": "Quota fill status for a schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Quota status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown schedule"}
                }
            },
            "post": {
                "tags": ["Quotas"],
                "summary": "Add department quotas",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/QuotaInput"}}}
                ],
                "responses": {
                    "201": {"description": "Quotas stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Duplicate or invalid quota"}
                }
            }
        },
        "/date-options/{id}/quotas/import": {
            "post": {
                "tags": ["Quotas"],
                "summary": "Import quotas from CSV",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Import report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/targets/resolve": {
            "post": {
                "tags": ["Quotas"],
                "summary": "Resolve an uploaded employee-id list for CUSTOM targeting",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "Matched employees and unresolved ids", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty or unreadable file"}
                }
            }
        },
        "/change-requests": {
            "get": {
                "tags": ["Change Requests"],
                "summary": "List change requests visible to the caller",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "eventId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Paginated requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Change Requests"],
                "summary": "Submit a change request",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitChangeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Request submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Assignment or target event not found"}
                }
            }
        },
        "/change-requests/{id}": {
            "get": {
                "tags": ["Change Requests"],
                "summary": "Change request detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Request detail", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the requester"}
                }
            }
        },
        "/change-requests/{id}/approve": {
            "post": {
                "tags": ["Change Requests"],
                "summary": "Approve a pending request and swap the seat",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Replacement assignment", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already decided"}
                }
            }
        },
        "/change-requests/{id}/reject": {
            "post": {
                "tags": ["Change Requests"],
                "summary": "Reject a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RejectRequest"}}
                ],
                "responses": {
                    "204": {"description": "Rejected"},
                    "409": {"description": "Request already decided"}
                }
            }
        },
        "/events/{id}/roster-export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a roster export job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/roster-exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the job owner"}
                }
            }
        },
        "/roster-exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "403": {"description": "Token invalid or expired"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["employeeId", "birthDate"],
            "properties": {
                "employeeId": {"type": "string"},
                "birthDate": {"type": "string", "format": "date"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "templateId": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["DRAFT", "PUBLISHED"]},
                "assignmentMode": {"type": "string"},
                "targetType": {"type": "string", "enum": ["ALL", "DEPARTMENT", "CUSTOM"]},
                "targetDepartments": {"type": "array", "items": {"type": "string"}},
                "targetEmployeeIds": {"type": "array", "items": {"type": "string"}},
                "locationType": {"type": "string", "enum": ["ZOOM", "OFFLINE"]},
                "dateMode": {"type": "string", "enum": ["SINGLE", "MULTIPLE"]},
                "dateOptions": {"type": "array", "items": {"type": "object"}}
            }
        },
        "ResolveRequest": {
            "type": "object",
            "properties": {
                "employeeIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ExcludeRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "AssignRequest": {
            "type": "object",
            "required": ["eventDateId"],
            "properties": {
                "eventDateId": {"type": "string"}
            }
        },
        "ConfirmRequest": {
            "type": "object",
            "required": ["eventId", "poolIds"],
            "properties": {
                "eventId": {"type": "string"},
                "poolIds": {"type": "array", "items": {"type": "string"}}
            }
        },
        "QuotaInput": {
            "type": "object",
            "required": ["department", "quota"],
            "properties": {
                "department": {"type": "string"},
                "quota": {"type": "integer"}
            }
        },
        "SubmitChangeRequest": {
            "type": "object",
            "required": ["assignmentId", "toEventId", "reason"],
            "properties": {
                "assignmentId": {"type": "string"},
                "toEventId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "RejectRequest": {
            "type": "object",
            "required": ["reason"],
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "department": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalItems": {"type": "integer"},
                "totalPages": {"type": "integer"}
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
