package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/logging"
)

// Tool call outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeToolError = "tool_error"
	OutcomeFailure   = "failure"
)

// maxParamChars bounds logged string arguments; note bodies and texts to
// summarize can be large.
const maxParamChars = 200

// sensitiveParamKeywords mark arguments whose values are hashed before logging.
var sensitiveParamKeywords = []string{"password", "secret", "token", "api_key", "apikey", "credential"}

// ToolCallRecorder receives one observation per tool call.
type ToolCallRecorder interface {
	RecordMCPToolCall(tool, outcome string, elapsed time.Duration)
}

// AuditLogger records every MCP tool call as a structured log entry and a
// metric observation.
type AuditLogger struct {
	recorder ToolCallRecorder
	logger   *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger. recorder may be nil.
func NewAuditLogger(recorder ToolCallRecorder, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{
		recorder: recorder,
		logger:   logger.Named("mcp-audit"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	elapsed := a.elapsed(id)

	outcome := OutcomeSuccess
	if result != nil && result.IsError {
		outcome = OutcomeToolError
	}
	a.record(ctx, req, outcome, elapsed, nil)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	a.record(ctx, req, OutcomeFailure, a.elapsed(id), err)
}

func (a *AuditLogger) elapsed(id any) time.Duration {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return time.Since(v.(time.Time))
	}
	return 0
}

func (a *AuditLogger) record(ctx context.Context, req *mcplib.CallToolRequest, outcome string, elapsed time.Duration, err error) {
	tool := req.Params.Name

	if a.recorder != nil {
		a.recorder.RecordMCPToolCall(tool, outcome, elapsed)
	}

	fields := []zap.Field{
		zap.String("tool", tool),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
	}
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		fields = append(fields, zap.String("user_id", userID.String()))
	}

	if err != nil {
		fields = append(fields, zap.String("error", logging.SanitizeError(err)))
		a.logger.Warn("MCP tool call failed", fields...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

// sanitizeParams prepares tool arguments for logging. Sensitive values are
// hashed so calls can still be correlated; long strings are truncated.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveParam(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		return logging.TruncateString(val, maxParamChars)
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, v := range val {
			nested[k] = sanitizeValue(k, v)
		}
		return nested
	default:
		return value
	}
}

func isSensitiveParam(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveParamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 hash prefix for sensitive values.
func hashSensitiveValue(value any) string {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	default:
		str = fmt.Sprintf("%v", v)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}
