// Package docs holds the OpenAPI document served on /swagger/*, kept in sync with the handler annotations.
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
        "/": {
            "get": {
                "description": "讀取環境變數與掛載檔案；檔案讀取失敗時回傳 \"File not found\"",
                "produces": ["application/json"],
                "tags": ["diagnostic"],
                "summary": "Diagnostic info",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/api.DiagnosticResponse"}
                    }
                }
            }
        },
        "/checking": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["diagnostic"],
                "summary": "Config echo",
                "responses": {
                    "200": {
                        "description": "configMap message is: No ConfigMap And secret password is: No Secret",
                        "schema": {"type": "string"}
                    }
                }
            }
        },
        "/db-status": {
            "get": {
                "description": "執行 SELECT NOW(), version()，依查詢結果回報連線狀態",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Database status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.DBStatus"}}}
                            ]
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {"$ref": "#/definitions/api.Response"}
                    }
                }
            }
        },
        "/live": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "ALIVE", "schema": {"type": "string"}}
                }
            }
        },
        "/ready": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "READY", "schema": {"type": "string"}}
                }
            }
        },
        "/users": {
            "get": {
                "description": "依 created_at 由新到舊列出所有使用者",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.User"}}}}
                            ]
                        }
                    },
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.Response"}},
                    "503": {"description": "資料庫尚未就緒", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "post": {
                "description": "建立使用者，name 與 email 皆為必填",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a new user",
                "parameters": [
                    {
                        "description": "使用者資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.User"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "description": "透過 ID 查詢使用者；有設定 Redis 時先讀快取",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user by ID",
                "parameters": [
                    {"type": "string", "description": "使用者 ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.User"}}}
                            ]
                        }
                    },
                    "404": {"description": "使用者不存在", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "伺服器錯誤", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "put": {
                "description": "更新使用者的 name 與 email，兩者皆為必填",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user by ID",
                "parameters": [
                    {"type": "string", "description": "使用者 ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "使用者資料",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/api.UpdateUserRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.User"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            },
            "delete": {
                "description": "刪除使用者並回傳被刪除的資料",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete a user by ID",
                "parameters": [
                    {"type": "string", "description": "使用者 ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/api.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/model.User"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.Response"}}
                }
            }
        }
    },
    "definitions": {
        "api.CreateUserRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "api.DiagnosticResponse": {
            "type": "object",
            "properties": {
                "messageFromConfigMap": {"type": "string"},
                "podName": {"type": "string"},
                "pvFileContent": {"type": "string"},
                "secretPassword": {"type": "string"}
            }
        },
        "api.Response": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "data": {},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "api.UpdateUserRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "model.DBStatus": {
            "type": "object",
            "properties": {
                "current_time": {"type": "string"},
                "db_version": {"type": "string"}
            }
        },
        "model.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"}
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
	Title:            "StatefulSet Users API",
	Description:      "Kubernetes StatefulSet 示範服務：診斷端點與 PostgreSQL 使用者 CRUD",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
