package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/fuzzyx/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

const (
	kindSuppliers = "suppliers"
	kindCustomers = "customers"
	kindProducts  = "products"
)

var (
	nameStems = []string{
		"Johnson", "Johnsen", "Baker", "Northwind", "Harbor", "Summit", "Evergreen",
		"Pioneer", "Atlas", "Meridian", "Granite", "Riverside", "Sterling", "Maple",
	}

	companySuffixes = []string{
		"Wholesale", "Supply", "Trading", "Distributors", "Foods", "Industries", "& Sons", "Co",
	}

	productNouns = []string{
		"Flour", "Olive Oil", "Rice", "Coffee Beans", "Paper Towels", "Detergent",
		"Printer Paper", "Ballpoint Pens", "Packing Tape", "Shipping Boxes",
	}

	productSizes = []string{"1kg", "5kg", "25kg", "500ml", "1L", "Pack of 12", "Case of 24"}
)

func pick(values []string) string {
	return values[rand.Intn(len(values))]
}

func companyName() string {
	return pick(nameStems) + " " + pick(companySuffixes)
}

func contact(name string) (string, string) {
	slug := strings.ToLower(strings.NewReplacer(" ", "", "&", "and").Replace(name))
	email := fmt.Sprintf("orders@%s.example", slug)
	phone := fmt.Sprintf("+1-555-%03d-%04d", rand.Intn(1000), rand.Intn(10000))
	return email, phone
}

// generateRecord builds a random catalog object of the given kind using the
// field names fuzzyx searches by default.
func generateRecord(kind string) map[string]any {
	switch kind {
	case kindSuppliers:
		name := companyName()
		email, phone := contact(name)
		return map[string]any{
			"companyName": name,
			"email":       email,
			"phone":       phone,
			"code":        fmt.Sprintf("SUP-%04d", rand.Intn(10000)),
		}
	case kindCustomers:
		name := companyName()
		email, phone := contact(name)
		return map[string]any{
			"businessName": name,
			"email":        email,
			"phone":        phone,
			"code":         fmt.Sprintf("CUS-%04d", rand.Intn(10000)),
		}
	default:
		noun := pick(productNouns)
		size := pick(productSizes)
		return map[string]any{
			"name":        noun + " " + size,
			"description": fmt.Sprintf("%s, %s, sold by %s", noun, size, companyName()),
			"sku":         fmt.Sprintf("%s-%05d", strings.ToUpper(noun[:3]), rand.Intn(100000)),
			"price":       float64(rand.Intn(20000)) / 100,
		}
	}
}

func insertRecord(ctx context.Context, client *dynamodb.Client, tableName string, record ddb.Record) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s record: %w", record.IndexName, err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Inserted catalog record",
		"id", record.ID,
		"kind", record.IndexName,
		"search_text", record.SearchText(),
	)
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	tableName := c.String("table-name")
	kind := c.String("kind")
	count := c.Int("count")

	switch kind {
	case kindSuppliers, kindCustomers, kindProducts:
	default:
		return fmt.Errorf("unknown kind %q: want %s, %s or %s", kind, kindSuppliers, kindCustomers, kindProducts)
	}

	slog.InfoContext(ctx, "Starting catalog generator",
		"environment", env,
		"table", tableName,
		"kind", kind,
		"count", count,
	)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg)

	for i := 0; i < count; i++ {
		record := ddb.Record{
			ID:        ksuid.New().String(),
			IndexName: kind,
			Object:    generateRecord(kind),
		}
		if err := insertRecord(ctx, client, tableName, record); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}

	slog.InfoContext(ctx, "Generated and inserted all records", "kind", kind, "count", count)
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "generator",
		Usage: "Generate random suppliers, customers or products and insert them into DynamoDB",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment name",
				EnvVars:  []string{"ENVIRONMENT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Record kind: suppliers, customers or products",
				Value:   kindSuppliers,
			},
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Number of records to generate",
				Value:   1,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
