package main

import (
	"context"
	"log"
	"time"

	"github.com/Anidipta/Node-Learner/infrastructure/config"
	"github.com/Anidipta/Node-Learner/infrastructure/di"
	"github.com/Anidipta/Node-Learner/interfaces/http/rest"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	// container holds the dependency injection container
	container *di.Container

	// coldStart tracks whether this is a cold start invocation
	coldStart = true

	// coldStartTime records when the cold start began
	coldStartTime time.Time
)

// init runs during cold start. Everything expensive happens here so warm
// invocations only pay for the request itself.
func init() {
	coldStartTime = time.Now()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	router := rest.NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.Collector,
		container.AuthMiddleware,
		container.TokenRefresh,
		container.Logger,
	)

	handler := router.Setup()

	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(coldStartTime)),
	)
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	rewriteAuthorizerHeaders(&req)

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}

	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = time.Since(coldStartTime).String()
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}

	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 400 {
		container.Logger.Warn("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.String("request_id", req.RequestContext.RequestID),
			zap.Int("status_code", resp.StatusCode),
		)
	}

	return resp, err
}

// rewriteAuthorizerHeaders rebuilds the identity headers the in-process
// middleware trusts. Inbound copies are dropped unconditionally, since a
// client could have set them, then written back from the API Gateway JWT
// authorizer claims when the gateway validated a token. The Authorization
// header itself passes through untouched.
func rewriteAuthorizerHeaders(req *events.APIGatewayV2HTTPRequest) {
	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}

	// API Gateway lowercases header names, but drop both forms.
	for _, name := range []string{
		"X-API-Gateway-Authorized", "x-api-gateway-authorized",
		"X-User-ID", "x-user-id",
		"X-User-Email", "x-user-email",
		"X-User-Roles", "x-user-roles",
	} {
		delete(req.Headers, name)
	}

	authorizer := req.RequestContext.Authorizer
	if authorizer == nil || authorizer.JWT == nil {
		return
	}

	claims := authorizer.JWT.Claims
	userID := claims["sub"]
	if userID == "" {
		return
	}

	req.Headers["X-API-Gateway-Authorized"] = "true"
	req.Headers["X-User-ID"] = userID
	if email := claims["email"]; email != "" {
		req.Headers["X-User-Email"] = email
	}
	if roles := claims["roles"]; roles != "" {
		req.Headers["X-User-Roles"] = roles
	}
}

func main() {
	lambda.Start(Handler)
}
