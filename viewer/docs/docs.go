// Package docs holds the swagger document served under /swagger/.
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
        "/api/axes/{axis}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Figure"],
                "summary": "Axis view",
                "parameters": [
                    {"type": "string", "description": "Axis id, e.g. machine_primary", "name": "axis", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/figure.AxisView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/axes/{axis}/click": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Figure"],
                "summary": "Manual peak override",
                "parameters": [
                    {"type": "string", "description": "Axis id", "name": "axis", "in": "path", "required": true},
                    {"description": "Click in data coordinates", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ClickRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/override.Refresh"}},
                    "204": {"description": "Click ignored"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/channels/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Experiment"],
                "summary": "Channel samples",
                "parameters": [
                    {"type": "string", "description": "Channel name, e.g. mach_rot_pri or head_rot_res", "name": "name", "in": "path", "required": true},
                    {"type": "boolean", "description": "Return filtered samples", "name": "filtered", "in": "query"},
                    {"type": "boolean", "description": "Limit to the active window", "name": "windowed", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.ChannelData"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/experiment": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Experiment"],
                "summary": "Current experiment",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Parses the recording at path, detects events and selects the display window",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Experiment"],
                "summary": "Load a recording",
                "parameters": [
                    {"description": "Recording path", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.LoadRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/session.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Experiment"],
                "summary": "Clear traces",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/experiment/{id}/summaries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Experiment"],
                "summary": "Experiment summaries",
                "parameters": [
                    {"type": "string", "description": "Experiment id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.SummariesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/export": {
            "post": {
                "description": "Writes raw, filtered and summary CSV files for a window around the machine event",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Export"],
                "summary": "Export to CSV",
                "parameters": [
                    {"description": "Directory and anchor (peak or rise_start)", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/export.Artifacts"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/api/window": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Experiment"],
                "summary": "Active window",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/window.Window"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "channel.Summary": {
            "type": "object",
            "properties": {
                "peak_index": {"type": "integer"},
                "rise_start_index": {"type": "integer"},
                "rise_end_index": {"type": "integer"},
                "peak_velocity": {"type": "number"},
                "time_to_peak": {"type": "number"},
                "decel_time": {"type": "number"},
                "fwhm": {"type": "number"},
                "delta_t": {"type": "number"},
                "rise_to_peak_slope": {"type": "number"},
                "peak_user_selected": {"type": "boolean"}
            }
        },
        "export.Artifacts": {
            "type": "object",
            "properties": {
                "experiment_id": {"type": "string"},
                "label": {"type": "string"},
                "anchor": {"type": "string"},
                "window": {"$ref": "#/definitions/window.Window"},
                "dir": {"type": "string"},
                "raw": {"type": "string"},
                "filtered": {"type": "string"},
                "summary": {"type": "string"},
                "parquet": {"type": "string"},
                "rows": {"type": "array", "items": {"$ref": "#/definitions/export.SummaryRow"}},
                "created_at": {"type": "string"}
            }
        },
        "export.SummaryRow": {
            "type": "object",
            "properties": {
                "channel": {"type": "string"},
                "peak_index": {"type": "integer"},
                "rise_start_index": {"type": "integer"},
                "rise_end_index": {"type": "integer"},
                "peak_velocity": {"type": "number"},
                "time_to_peak": {"type": "number"},
                "decel_time": {"type": "number"},
                "fwhm": {"type": "number"},
                "delta_t": {"type": "number"},
                "rise_to_peak_slope": {"type": "number"},
                "peak_user_selected": {"type": "boolean"}
            }
        },
        "figure.AxisView": {
            "type": "object",
            "properties": {
                "axis": {"type": "string"},
                "title": {"type": "string"},
                "unit": {"type": "string"},
                "offset": {"type": "integer"},
                "x": {"type": "array", "items": {"type": "number"}},
                "y": {"type": "array", "items": {"type": "number"}},
                "lines": {"type": "array", "items": {"$ref": "#/definitions/figure.Line"}},
                "markers": {"type": "array", "items": {"$ref": "#/definitions/figure.Marker"}},
                "box": {"$ref": "#/definitions/figure.SummaryBox"},
                "dirty": {"type": "boolean"}
            }
        },
        "figure.Line": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "channel": {"type": "string"},
                "y": {"type": "array", "items": {"type": "number"}}
            }
        },
        "figure.Marker": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "at": {"type": "object", "properties": {"x": {"type": "number"}, "y": {"type": "number"}}}
            }
        },
        "figure.SummaryBox": {
            "type": "object",
            "properties": {
                "lines": {"type": "array", "items": {"type": "string"}},
                "user_selected": {"type": "boolean"},
                "style": {"type": "object", "properties": {"face": {"type": "string"}, "edge": {"type": "string"}}}
            }
        },
        "override.Refresh": {
            "type": "object",
            "properties": {
                "axis": {"type": "string"},
                "relative_index": {"type": "integer"},
                "absolute_index": {"type": "integer"},
                "summary": {"$ref": "#/definitions/channel.Summary"},
                "markers": {"type": "array", "items": {"$ref": "#/definitions/figure.Marker"}},
                "box": {"$ref": "#/definitions/figure.SummaryBox"}
            }
        },
        "server.ClickRequest": {
            "type": "object",
            "properties": {
                "button": {"type": "integer"},
                "x": {"type": "number"},
                "y": {"type": "number"},
                "pixel": {"type": "boolean"}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "server.ExportRequest": {
            "type": "object",
            "properties": {
                "anchor": {"type": "string"},
                "dir": {"type": "string"}
            }
        },
        "server.LoadRequest": {
            "type": "object",
            "properties": {
                "path": {"type": "string"}
            }
        },
        "server.SummariesResponse": {
            "type": "object",
            "properties": {
                "experiment_id": {"type": "string"},
                "source": {"type": "string"},
                "summaries": {"type": "object", "additionalProperties": {"$ref": "#/definitions/channel.Summary"}}
            }
        },
        "session.ChannelData": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "index": {"type": "integer"},
                "eu": {"type": "string"},
                "sample_rate_hz": {"type": "number"},
                "filtered": {"type": "boolean"},
                "window": {"$ref": "#/definitions/window.Window"},
                "offset": {"type": "integer"},
                "samples": {"type": "array", "items": {"type": "number"}}
            }
        },
        "session.Snapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "source_path": {"type": "string"},
                "loaded_at": {"type": "string"},
                "sample_rate_hz": {"type": "number"},
                "samples": {"type": "integer"},
                "window_samples": {"type": "integer"},
                "window": {"$ref": "#/definitions/window.Window"},
                "summaries": {"type": "object", "additionalProperties": {"$ref": "#/definitions/channel.Summary"}}
            }
        },
        "window.Window": {
            "type": "object",
            "properties": {
                "start": {"type": "integer"},
                "end": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "DTS Viewer API",
	Description:      "Loads impact recordings, shows the event window per axis and exports CSV.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
