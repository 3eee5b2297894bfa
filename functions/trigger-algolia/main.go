package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/letmevibethatforyou/fuzzyx/algolia"
	"github.com/letmevibethatforyou/fuzzyx/internal/ddb"
	"github.com/urfave/cli/v2"
)

// objectStore is the part of algolia.Client the handler writes through.
type objectStore interface {
	SaveObject(ctx context.Context, indexName string, object map[string]any) error
	DeleteObject(ctx context.Context, indexName string, objectID string) error
}

type Handler struct {
	tableName string
	store     objectStore
}

func NewHandler(tableName string, store objectStore) *Handler {
	return &Handler{
		tableName: tableName,
		store:     store,
	}
}

// HandleDynamoDBEvent mirrors catalog changes into Algolia. It stops at the
// first write failure so Lambda retries the batch; malformed records are
// skipped.
func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "table", h.tableName, "record_count", len(e.Records))

	for _, record := range e.Records {
		if err := h.processRecord(ctx, record); err != nil {
			slog.ErrorContext(ctx, "Error processing record", "event_id", record.EventID, "error", err)
			return err
		}
	}

	return nil
}

func (h *Handler) processRecord(ctx context.Context, record ddb.DynamoDBEventRecord) error {
	switch ddb.DynamoDBOperationType(record.EventName) {
	case ddb.DynamoDBOperationTypeInsert, ddb.DynamoDBOperationTypeModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record", "event_id", record.EventID)
			return nil
		}

		parsed, err := ddb.UnmarshalRecord(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}
		if err := parsed.Validate(); err != nil {
			slog.WarnContext(ctx, "Incomplete record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}

		slog.InfoContext(ctx, "Saving object to Algolia", "object_id", parsed.ID, "index", parsed.IndexName)
		return h.store.SaveObject(ctx, parsed.IndexName, parsed.IndexObject())

	case ddb.DynamoDBOperationTypeRemove:
		parsed, err := ddb.UnmarshalRecord(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "event_id", record.EventID, "error", err)
			return nil
		}
		if err := parsed.ValidateKeys(); err != nil {
			slog.WarnContext(ctx, "Incomplete keys in delete record, skipping", "event_id", record.EventID, "error", err)
			return nil
		}

		slog.InfoContext(ctx, "Deleting object from Algolia", "object_id", parsed.ID, "index", parsed.IndexName)
		return h.store.DeleteObject(ctx, parsed.IndexName, parsed.ID)

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return nil
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "catalog-algolia-sync",
		Usage: "Sync catalog records from a DynamoDB stream to Algolia",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "table-name",
				Usage:    "DynamoDB table name to sync from",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Environment name for AWS Secrets Manager (takes precedence over API key/ID flags)",
				EnvVars: []string{"ENV", "ENVIRONMENT"},
			},
			&cli.StringFlag{
				Name:    "algolia-app-id",
				Usage:   "Algolia application ID",
				EnvVars: []string{"ALGOLIA_APP_ID"},
			},
			&cli.StringFlag{
				Name:    "algolia-api-key",
				Usage:   "Algolia API key",
				EnvVars: []string{"ALGOLIA_API_KEY"},
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	tableName := c.String("table-name")
	env := c.String("env")
	appID := c.String("algolia-app-id")
	apiKey := c.String("algolia-api-key")

	slog.InfoContext(ctx, "Starting catalog to Algolia sync", "table", tableName, "environment", env)

	var fetchSecrets algolia.FetchSecrets
	switch {
	case env != "":
		slog.InfoContext(ctx, "Using AWS Secrets Manager for credentials", "environment", env)
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load AWS config", "error", err)
			return err
		}
		fetchSecrets = algolia.AWSSecrets(ctx, secretsmanager.NewFromConfig(cfg), env)
	case appID != "" && apiKey != "":
		slog.InfoContext(ctx, "Using static credentials from flags")
		fetchSecrets = algolia.StaticSecrets(appID, apiKey)
	default:
		slog.InfoContext(ctx, "Using environment variables for credentials")
		fetchSecrets = algolia.EnvSecrets()
	}

	handler := NewHandler(tableName, algolia.NewClient(fetchSecrets))

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		slog.InfoContext(ctx, "Function cannot run outside of AWS Lambda environment")
		return nil
	}
	slog.InfoContext(ctx, "Running in Lambda environment")
	lambda.Start(handler.HandleDynamoDBEvent)
	return nil
}
