package main

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/chat"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/config"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/fplsource"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

const maxChatBody = 16 << 10

const chatRequestSchema = `{
  "type": "object",
  "required": ["message", "teamId"],
  "properties": {
    "message":   {"type": "string", "minLength": 1, "maxLength": 2000},
    "teamId":    {"type": ["string", "integer"], "pattern": "^[0-9]{1,10}$", "minimum": 1},
    "sessionId": {"type": "string", "maxLength": 128},
    "refresh":   {"type": "boolean"}
  },
  "additionalProperties": false
}`

func compileSchema(name, raw string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(raw)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

type routerDeps struct {
	server config.ServerConfig
	chat   *chat.Service
	tools  *[]toolInfo
	mcp    http.Handler
}

func newRouter(d routerDeps) (*gin.Engine, error) {
	schema, err := compileSchema("chat-request.json", chatRequestSchema)
	if err != nil {
		return nil, fmt.Errorf("compile chat schema: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLog())
	r.Use(cors.New(corsConfig(d.server.CORSOrigins, d.server.AuthHeader)))

	auth := withAuth(d.server.APIKey, d.server.AuthHeader)

	r.GET("/health", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/tools", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tools": *d.tools})
	})
	r.POST("/api/chat", auth, chatHandler(d.chat, schema))
	if d.mcp != nil {
		r.Any(d.server.MCPPath, auth, gin.WrapH(d.mcp))
	}
	return r, nil
}

func corsConfig(origins []string, authHeader string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", authHeader, "Mcp-Session-Id"},
		ExposeHeaders: []string{"Content-Length", "Mcp-Session-Id"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// withAuth accepts the key in the configured header or as a bearer token.
// An empty key disables the check.
func withAuth(apiKey, header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(header))
		if key == "" {
			if authz := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("[http] %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

func chatHandler(svc *chat.Service, schema *jsonschema.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := decodeChatRequest(c, schema)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request", "error": err.Error()})
			return
		}
		resp := svc.Answer(c.Request.Context(), req)
		logger.Infof("[chat] %s", resp.Describe())
		c.JSON(statusFor(resp), resp)
	}
}

func decodeChatRequest(c *gin.Context, schema *jsonschema.Schema) (chat.Request, error) {
	body, err := readLimited(c, maxChatBody)
	if err != nil {
		return chat.Request{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return chat.Request{}, fmt.Errorf("body is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return chat.Request{}, err
	}

	m := doc.(map[string]any)
	req := chat.Request{}
	req.Message, _ = m["message"].(string)
	req.SessionID, _ = m["sessionId"].(string)
	req.Refresh, _ = m["refresh"].(bool)
	switch v := m["teamId"].(type) {
	case string:
		req.TeamID = v
	case json.Number:
		req.TeamID = v.String()
	}
	return req, nil
}

func readLimited(c *gin.Context, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := buf.ReadFrom(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if n == 0 {
		return nil, errors.New("empty body")
	}
	return buf.Bytes(), nil
}

func statusFor(resp chat.Response) int {
	if resp.Success {
		return http.StatusOK
	}
	err := resp.Err()
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, fplsource.ErrInvalidTeamID):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
