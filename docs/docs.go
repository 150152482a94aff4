// Package docs holds the swagger document served at /swagger.
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
    "paths": {
        "/auth/register": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Register a citizen",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Registration data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.RegisterRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.RegisterResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/register-by-admin": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Register a citizen or admin on behalf of an admin",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Registration data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.RegisterRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/handler.RegisterResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Login",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.LoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.TokenResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Revoke the presented token",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.MessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/auth/me": {
            "delete": {
                "tags": [
                    "auth"
                ],
                "summary": "Delete the caller's account and grievances",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.MessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "List every grievance",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/view.Grievance"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "grievances"
                ],
                "summary": "Submit a grievance",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Grievance (JSON)",
                        "name": "request",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/handler.CreateGrievanceRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "Optional photo (jpeg, png or gif, up to 5 MB)",
                        "name": "photos",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/view.Grievance"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances/my-grievances": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "List the caller's grievances",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/view.Grievance"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances/department": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "List grievances routed to the admin's department",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/view.Grievance"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances/stats": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "Dashboard statistics",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/service.Stats"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances/categories": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "Categories in use",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "string"
                            }
                        }
                    }
                }
            }
        },
        "/grievances/{id}": {
            "get": {
                "tags": [
                    "grievances"
                ],
                "summary": "Get a grievance",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Grievance ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/view.Grievance"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "grievances"
                ],
                "summary": "Update a grievance",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json",
                    "multipart/form-data"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Grievance ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Changes (JSON)",
                        "name": "request",
                        "in": "body",
                        "schema": {
                            "$ref": "#/definitions/handler.UpdateGrievanceRequest"
                        }
                    },
                    {
                        "type": "file",
                        "description": "Optional photo (jpeg, png or gif, up to 5 MB)",
                        "name": "photos",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/view.Grievance"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "grievances"
                ],
                "summary": "Delete a grievance",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Grievance ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.MessageResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/grievances/{id}/status": {
            "put": {
                "tags": [
                    "grievances"
                ],
                "summary": "Change a grievance's status",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Grievance ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "New status: Submitted, In Progress or Resolved",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.StatusRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.StatusResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/department": {
            "get": {
                "tags": [
                    "departments"
                ],
                "summary": "List departments",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/model.Department"
                            }
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "departments"
                ],
                "summary": "Add a department",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Department",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.CreateDepartmentRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/model.Department"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/department/{id}": {
            "put": {
                "tags": [
                    "departments"
                ],
                "summary": "Rename a department",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Department ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "New name",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.RenameDepartmentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.DepartmentUpdatedResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "departments"
                ],
                "summary": "Delete a department",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Department ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.MessageResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/admins": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "List admins",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/view.Admin"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/admins/{id}": {
            "put": {
                "tags": [
                    "admin"
                ],
                "summary": "Update an admin",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Admin ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Changes",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.UpdateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/view.Admin"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "admin"
                ],
                "summary": "Delete an admin",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Admin ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.AdminDeletedResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/citizens": {
            "get": {
                "tags": [
                    "admin"
                ],
                "summary": "List citizens",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/view.Citizen"
                            }
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/admin/citizens/{id}": {
            "put": {
                "tags": [
                    "admin"
                ],
                "summary": "Update a citizen",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Citizen ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Changes",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/handler.UpdateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/view.Citizen"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "admin"
                ],
                "summary": "Delete a citizen and their grievances",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "TokenAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Citizen ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/handler.CitizenDeletedResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/errors.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                }
            }
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                }
            }
        },
        "handler.RegisterRequest": {
            "type": "object",
            "properties": {
                "fullname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                }
            }
        },
        "handler.RegisterResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                },
                "user": {
                    "$ref": "#/definitions/view.RegisteredUser"
                }
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": [
                "email",
                "password"
            ],
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "handler.TokenResponse": {
            "type": "object",
            "properties": {
                "token": {
                    "type": "string"
                }
            }
        },
        "handler.CreateGrievanceRequest": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                }
            }
        },
        "handler.UpdateGrievanceRequest": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                },
                "photos": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "status": {
                    "type": "string"
                },
                "feedback": {
                    "type": "string"
                }
            }
        },
        "handler.StatusRequest": {
            "type": "object",
            "required": [
                "status"
            ],
            "properties": {
                "status": {
                    "type": "string"
                }
            }
        },
        "handler.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                }
            }
        },
        "handler.CreateDepartmentRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                }
            }
        },
        "handler.RenameDepartmentRequest": {
            "type": "object",
            "properties": {
                "newName": {
                    "type": "string"
                }
            }
        },
        "handler.DepartmentUpdatedResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                },
                "department": {
                    "$ref": "#/definitions/model.Department"
                }
            }
        },
        "handler.UpdateUserRequest": {
            "type": "object",
            "properties": {
                "fullname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                }
            }
        },
        "handler.AdminDeletedResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                },
                "admin": {
                    "$ref": "#/definitions/view.Admin"
                }
            }
        },
        "handler.CitizenDeletedResponse": {
            "type": "object",
            "properties": {
                "msg": {
                    "type": "string"
                },
                "citizen": {
                    "$ref": "#/definitions/view.Citizen"
                }
            }
        },
        "model.Department": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "view.RegisteredUser": {
            "type": "object",
            "properties": {
                "fullname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                }
            }
        },
        "view.Admin": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "fullname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "department": {
                    "type": "string"
                }
            }
        },
        "view.Citizen": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "fullname": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "view.Photo": {
            "type": "object",
            "properties": {
                "url": {
                    "type": "string"
                },
                "path": {
                    "type": "string"
                }
            }
        },
        "view.DepartmentRef": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                }
            }
        },
        "view.UserRef": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                }
            }
        },
        "view.Grievance": {
            "type": "object",
            "properties": {
                "_id": {
                    "type": "string"
                },
                "trackingId": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "photos": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/view.Photo"
                    }
                },
                "createdAt": {
                    "type": "string"
                },
                "category": {
                    "type": "string"
                },
                "department": {
                    "$ref": "#/definitions/view.DepartmentRef"
                },
                "submittedBy": {
                    "$ref": "#/definitions/view.UserRef"
                },
                "feedback": {
                    "type": "string"
                }
            }
        },
        "service.CategoryCount": {
            "type": "object",
            "properties": {
                "category": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "service.DepartmentCount": {
            "type": "object",
            "properties": {
                "department": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "service.DayCount": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "service.Stats": {
            "type": "object",
            "properties": {
                "totalGrievances": {
                    "type": "integer"
                },
                "submitted": {
                    "type": "integer"
                },
                "inProgress": {
                    "type": "integer"
                },
                "resolved": {
                    "type": "integer"
                },
                "grievancesPerCategory": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.CategoryCount"
                    }
                },
                "grievancesPerDepartment": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.DepartmentCount"
                    }
                },
                "grievancesPerDay": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/service.DayCount"
                    }
                },
                "resolutionRate": {
                    "type": "number"
                }
            }
        }
    },
    "securityDefinitions": {
        "TokenAuth": {
            "type": "apiKey",
            "name": "x-auth-token",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5001",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "Grievance Desk API",
	Description:      "Citizen grievance submission and triage API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
