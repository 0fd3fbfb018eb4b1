// Package docs holds the OpenAPI description served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type \"Bearer\" followed by a space and the JWT token."
        }
    },
    "paths": {
        "/auth/signin": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "description": "Authenticates a user and returns a session token. Repeated failures lock the account temporarily.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "tags": ["users"],
                "summary": "Register a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["users"],
                "summary": "Get a user",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.UserResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/movies": {
            "get": {
                "tags": ["movies"],
                "summary": "List movies",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "name", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "director", "in": "query", "type": "string"},
                    {"name": "min_rating", "in": "query", "type": "number"},
                    {"name": "max_rating", "in": "query", "type": "number"},
                    {"name": "min_duration", "in": "query", "type": "integer"},
                    {"name": "max_duration", "in": "query", "type": "integer"},
                    {"name": "initial_date", "in": "query", "type": "string"},
                    {"name": "final_date", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["movies"],
                "summary": "Create a movie",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateMovieRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.MovieResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/movies/stats": {
            "get": {
                "tags": ["movies"],
                "summary": "Catalog statistics",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieStatsResponse"}}
                }
            }
        },
        "/movies/{id}": {
            "get": {
                "tags": ["movies"],
                "summary": "Get a movie",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "put": {
                "tags": ["movies"],
                "summary": "Update a movie",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.MovieResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["movies"],
                "summary": "Delete a movie",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/uploads": {
            "post": {
                "tags": ["uploads"],
                "summary": "Upload an image",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.UploadResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Payload Too Large", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["uploads"],
                "summary": "Delete an uploaded image",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "key", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/uploads/presign": {
            "get": {
                "tags": ["uploads"],
                "summary": "Presign a download",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "key", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "Service Unavailable"}
                }
            }
        }
    },
    "definitions": {
        "handlers.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handlers.CreateUserRequest": {
            "type": "object",
            "required": ["name", "email", "password"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 8}
            }
        },
        "handlers.CreateMovieRequest": {
            "type": "object",
            "required": ["name", "status"],
            "properties": {
                "name": {"type": "string"},
                "original_name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string", "enum": ["released", "in_production", "post_production", "pre_production", "cancelled", "on_hold"]},
                "release_date": {"type": "string", "example": "2026-10-01"},
                "budget": {"type": "number"},
                "revenue": {"type": "number"},
                "genres": {"type": "array", "items": {"type": "string"}},
                "director": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "rating": {"type": "number"}
            }
        },
        "handlers.UpdateMovieRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "original_name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "release_date": {"type": "string"},
                "budget": {"type": "number"},
                "revenue": {"type": "number"},
                "banner": {"type": "string"},
                "genres": {"type": "array", "items": {"type": "string"}},
                "director": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "rating": {"type": "number"}
            }
        },
        "handlers.MovieResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "original_name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "release_date": {"type": "string"},
                "budget": {"type": "number"},
                "revenue": {"type": "number"},
                "banner": {"type": "string"},
                "genres": {"type": "array", "items": {"type": "string"}},
                "director": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "rating": {"type": "number"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.MovieListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/handlers.MovieResponse"}},
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "handlers.MovieStatsResponse": {
            "type": "object",
            "properties": {
                "total_movies": {"type": "integer"},
                "released_movies": {"type": "integer"},
                "in_production_movies": {"type": "integer"},
                "highest_budget_movie": {"$ref": "#/definitions/handlers.MovieResponse"},
                "highest_revenue_movie": {"$ref": "#/definitions/handlers.MovieResponse"},
                "highest_rated_movie": {"$ref": "#/definitions/handlers.MovieResponse"},
                "longest_movie": {"$ref": "#/definitions/handlers.MovieResponse"},
                "average_rating": {"type": "number"},
                "average_duration": {"type": "number"}
            }
        },
        "services.AuthResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/services.UserResponse"}
            }
        },
        "services.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "services.UploadResult": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "url": {"type": "string"},
                "size": {"type": "integer"},
                "content_type": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Marquee API",
	Description:      "Movie catalog service with release notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
