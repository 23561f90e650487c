package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsapigw "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"chat-engine/handler"
	"chat-engine/internal/integrations/paramstore"
	"chat-engine/internal/integrations/pushgw"
	"chat-engine/internal/repository"
	"chat-engine/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	// Environment first; SSM Parameter Store fills the gaps when PARAM_PREFIX
	// is set.
	clientsTable := os.Getenv("CLIENTS_TABLE")
	messagesTable := os.Getenv("MESSAGES_TABLE")
	wsEndpoint := os.Getenv("WS_ENDPOINT")
	paramPrefix := os.Getenv("PARAM_PREFIX")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	if paramPrefix != "" {
		params, err := paramstore.New(awsssm.NewFromConfig(cfg))
		if err != nil {
			slog.Error("failed to create SSM client", "err", err)
			os.Exit(1)
		}
		clientsTable = fromParam(ctx, params, clientsTable, paramPrefix+"/clients_table")
		messagesTable = fromParam(ctx, params, messagesTable, paramPrefix+"/messages_table")
		wsEndpoint = fromParam(ctx, params, wsEndpoint, paramPrefix+"/ws_endpoint")
	}
	mustSet("CLIENTS_TABLE", clientsTable)
	mustSet("MESSAGES_TABLE", messagesTable)
	mustSet("WS_ENDPOINT", wsEndpoint)

	// ---- Clients ----
	dynamoClient := awsdynamodb.NewFromConfig(cfg)
	connections, err := repository.NewConnectionStore(dynamoClient, clientsTable)
	if err != nil {
		slog.Error("failed to create connection store", "err", err)
		os.Exit(1)
	}
	messageLog, err := repository.NewMessageLog(dynamoClient, messagesTable)
	if err != nil {
		slog.Error("failed to create message log", "err", err)
		os.Exit(1)
	}

	gatewayClient := awsapigw.NewFromConfig(cfg, func(o *awsapigw.Options) {
		o.BaseEndpoint = aws.String(wsEndpoint)
	})
	push, err := pushgw.New(gatewayClient)
	if err != nil {
		slog.Error("failed to create push gateway client", "err", err)
		os.Exit(1)
	}

	// ---- Services ----
	presence, err := usecase.NewPresenceService(connections, push)
	if err != nil {
		slog.Error("failed to create presence service", "err", err)
		os.Exit(1)
	}
	messages, err := usecase.NewMessageService(connections, messageLog, push)
	if err != nil {
		slog.Error("failed to create message service", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(presence, messages, push)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// fromParam returns current when already set, otherwise reads the named SSM
// parameter. A parameter-store miss is fatal only if the value stays empty,
// which mustSet reports.
func fromParam(ctx context.Context, params *paramstore.Client, current, name string) string {
	if current != "" {
		return current
	}
	v, err := params.GetParameter(ctx, name)
	if err != nil {
		slog.Warn("failed to read parameter", "name", name, "err", err)
		return ""
	}
	return v
}

func mustSet(key, value string) {
	if value == "" {
		slog.Error("required configuration is not set", "key", key)
		os.Exit(1)
	}
}
