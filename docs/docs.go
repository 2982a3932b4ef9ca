package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "SafeReport Intake API",
    "description": "Report intake wizard, triage and case lifecycle",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
    "/api/sectors": {"get": {"tags": ["registry"], "summary": "List sectors", "responses": {"200": {"description": "OK"}}}},
    "/api/sectors/{sector}/categories": {"get": {"tags": ["registry"], "summary": "List categories of a sector", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
    "/api/sectors/{sector}/categories/{category}/fields": {"get": {"tags": ["registry"], "summary": "Fields for a sector and category", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
    "/api/drafts": {"post": {"tags": ["drafts"], "summary": "Start a report draft", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation failed"}}}},
    "/api/drafts/{id}": {
      "get": {"tags": ["drafts"], "summary": "Get a draft", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
      "delete": {"tags": ["drafts"], "summary": "Abandon a draft", "responses": {"204": {"description": "No content"}, "404": {"description": "Not found"}}}
    },
    "/api/drafts/{id}/steps": {"post": {"tags": ["drafts"], "summary": "Submit the current step", "responses": {"200": {"description": "OK"}, "422": {"description": "Validation failed"}}}},
    "/api/drafts/{id}/back": {"post": {"tags": ["drafts"], "summary": "Go back one step", "responses": {"200": {"description": "OK"}}}},
    "/api/drafts/{id}/submit": {"post": {"tags": ["drafts"], "summary": "Submit a completed draft as a report", "responses": {"201": {"description": "Created"}, "422": {"description": "Incomplete draft"}, "503": {"description": "Try again"}}}},
    "/api/cases/{caseId}": {"get": {"tags": ["cases"], "summary": "Check report status by case id", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}, "429": {"description": "Rate limited"}}}},
    "/api/reports": {"get": {"tags": ["reports"], "summary": "List reports", "responses": {"200": {"description": "OK"}, "403": {"description": "Not permitted"}}}},
    "/api/reports/{id}": {
      "get": {"tags": ["reports"], "summary": "Get a report", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
      "patch": {"tags": ["reports"], "summary": "Reporter edit", "responses": {"200": {"description": "OK"}, "409": {"description": "Not editable"}}}
    },
    "/api/reports/{id}/status": {"patch": {"tags": ["reports"], "summary": "Change report status", "responses": {"200": {"description": "OK"}, "403": {"description": "Not permitted"}, "409": {"description": "Invalid transition"}}}},
    "/api/reports/{id}/triage": {"patch": {"tags": ["reports"], "summary": "Update triage notes, urgency or risk score", "responses": {"200": {"description": "OK"}, "422": {"description": "Validation failed"}}}}
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
