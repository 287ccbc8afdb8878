// Command server exposes the engine over HTTP as a single POST /decide
// enforcement boundary, using gin the way the teacher's go.mod pulls it in
// (the teacher itself never wires a router; this is the first thing in
// the tree that does). Configuration follows the teacher's getEnv/
// getEnvAsInt convention from storage/database.go.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"abacengine/attribute"
	"abacengine/audit"
	"abacengine/cache"
	"abacengine/categorizer"
	"abacengine/constants"
	"abacengine/enforcer"
	"abacengine/evaluator"
	"abacengine/policy"
	"abacengine/retrieval"
	"abacengine/store"
)

type decideRequest struct {
	Action      string           `json:"action" binding:"required"`
	Actor       map[string]any   `json:"actor" binding:"required"`
	Subjects    []map[string]any `json:"subjects"`
	Environment map[string]any   `json:"environment"`
}

type decideResponse struct {
	Allowed bool                   `json:"allowed"`
	Message string                 `json:"message"`
	Code    constants.DecisionCode `json:"code"`
}

func main() {
	policyFile := getEnv("ABAC_POLICY_FILE", "policies.json")
	auditLogPath := getEnv("ABAC_AUDIT_LOG", "")
	ttl := time.Duration(getEnvAsInt(constants.EnvCacheTTLSeconds, constants.DefaultCacheTTLSeconds)) * time.Second
	addr := getEnv("ABAC_LISTEN_ADDR", ":8080")

	backend, err := store.Open(policyFile)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	policyCache, err := cache.New(context.Background(), backend, ttl, log.Default())
	if err != nil {
		log.Fatalf("server: failed to load initial policy set: %v", err)
	}

	retriever := retrieval.New(policyCache, categorizer.New())
	eval := evaluator.New(retriever, attribute.NewAccessor())
	enf := enforcer.New(eval, log.Default())

	auditLogger, err := audit.New(auditLogPath)
	if err != nil {
		log.Fatalf("server: %v", err)
	}
	defer auditLogger.Close()

	router := gin.Default()
	router.POST("/decide", decideHandler(enf, auditLogger))

	log.Printf("server: listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func decideHandler(enf *enforcer.Enforcer, auditLogger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		subjects := make([]any, len(req.Subjects))
		for i, s := range req.Subjects {
			subjects[i] = s
		}
		reqCtx := policy.NewPolicyContext(req.Actor, subjects, req.Environment)

		err := enf.Enforce(c.Request.Context(), req.Action, reqCtx)

		var denied *enforcer.DeniedError
		switch {
		case err == nil:
			decision := policy.Permit("permitted")
			logDecision(auditLogger, req.Action, decision)
			c.JSON(http.StatusOK, decideResponse{Allowed: decision.Allowed, Message: decision.Message, Code: decision.Code})
		case errors.As(err, &denied):
			decision := denied.Decision
			logDecision(auditLogger, req.Action, decision)
			c.JSON(http.StatusForbidden, decideResponse{Allowed: decision.Allowed, Message: decision.Message, Code: decision.Code})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Cancellation is not a decision: nothing is logged, since no
			// decision was ever reached.
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func logDecision(auditLogger *audit.Logger, action string, decision policy.Decision) {
	if err := auditLogger.LogDecision(action, decision); err != nil {
		log.Printf("server: failed to write audit entry: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
