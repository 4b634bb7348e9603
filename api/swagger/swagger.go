package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Grade API",
        "description": "Grade aggregation engine for the learning-management backend",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Rollups", "description": "Persisted per-student course rollups"},
        {"name": "Reports", "description": "Batch gradebook reports"},
        {"name": "Categories", "description": "Scoring category administration"},
        {"name": "Scales", "description": "Grade and GPA scale configuration"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/v1/grade-events": {
            "post": {
                "tags": ["Rollups"],
                "summary": "Apply a grade event",
                "responses": {
                    "202": {"description": "Accepted"}
                }
            }
        },
        "/api/v1/students/{studentId}/courses/{courseId}/rollup": {
            "get": {
                "tags": ["Rollups"],
                "summary": "Get a student's course rollup",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true},
                    {"name": "courseId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/api/v1/students/{studentId}/courses/{courseId}/rollup/prune": {
            "post": {
                "tags": ["Rollups"],
                "summary": "Prune deleted items from a rollup",
                "parameters": [
                    {"name": "studentId", "in": "path", "type": "string", "required": true},
                    {"name": "courseId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/reports/gradebook": {
            "get": {
                "tags": ["Reports"],
                "summary": "Paginated gradebook report",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string", "required": true},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/reports/gradebook/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export gradebook as CSV or PDF",
                "parameters": [
                    {"name": "courseId", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/courses/{courseId}/categories": {
            "get": {
                "tags": ["Categories"],
                "summary": "List scoring categories",
                "parameters": [
                    {"name": "courseId", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Categories"],
                "summary": "Create a scoring category",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid weights"}
                }
            }
        },
        "/api/v1/scales/grade": {
            "get": {
                "tags": ["Scales"],
                "summary": "Get the letter-grade scale",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Scales"],
                "summary": "Replace the letter-grade scale",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/scales/gpa": {
            "get": {
                "tags": ["Scales"],
                "summary": "Get the GPA scale",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Scales"],
                "summary": "Replace the GPA scale",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "LMS Grade API",
	Description:      "Grade aggregation engine for the learning-management backend",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
