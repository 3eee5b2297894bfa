// Package algolia is a fuzzyx.Searcher backed by an Algolia index. Algolia
// supplies the candidate hits; fuzzyx re-ranks them so remote and local
// searches order records the same way.
package algolia

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fuzzyx-algolia"

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteApiKey is the Algolia write API key.
	WriteApiKey string `json:"write_api_key"`
}

// FetchSecrets retrieves Algolia credentials. It is called at most once per
// Client.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, writeApiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteApiKey: writeApiKey,
		}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, errors.New("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, errors.New("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteApiKey: apiKey,
		}, nil
	}
}

// Client lazily builds the Algolia client on first use and traces every call.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

// NewClient returns a Client that fetches credentials on first use. A failed
// fetch is remembered and returned by every later call.
func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		if fetchSecrets == nil {
			return nil, errors.New("no secrets source configured")
		}
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}

		if secrets.AppID == "" {
			return nil, errors.New("AppID is empty")
		}

		if secrets.WriteApiKey == "" {
			return nil, errors.New("WriteApiKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.WriteApiKey), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer(tracerName),
	}
}

// searchIndex opens indexName for querying.
func (c *Client) searchIndex(indexName string) (hitIndex, error) {
	client, err := c.getClient()
	if err != nil {
		return nil, err
	}
	return client.InitIndex(indexName), nil
}

// withIndex runs fn against indexName inside a span named "algolia."+op.
func (c *Client) withIndex(ctx context.Context, op, indexName string, attrs []attribute.KeyValue, fn func(*search.Index) error) error {
	attrs = append(attrs, attribute.String("algolia.index_name", indexName))
	_, span := c.tracer.Start(ctx, "algolia."+op, trace.WithAttributes(attrs...))
	defer span.End()

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if err := fn(client.InitIndex(indexName)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, fmt.Sprintf("%s failed on index %s", op, indexName))
		return err
	}

	span.SetStatus(codes.Ok, op+" succeeded")
	return nil
}

// SaveObject upserts one object. The object must carry an "objectID".
func (c *Client) SaveObject(ctx context.Context, indexName string, object map[string]any) error {
	var attrs []attribute.KeyValue
	if id, ok := object["objectID"].(string); ok {
		attrs = append(attrs, attribute.String("algolia.object_id", id))
	}
	return c.withIndex(ctx, "save_object", indexName, attrs, func(index *search.Index) error {
		if _, err := index.SaveObject(object); err != nil {
			return errors.Wrapf(err, "failed to save object to Algolia index %s", indexName)
		}
		return nil
	})
}

// DeleteObject removes one object by ID.
func (c *Client) DeleteObject(ctx context.Context, indexName string, objectID string) error {
	attrs := []attribute.KeyValue{attribute.String("algolia.object_id", objectID)}
	return c.withIndex(ctx, "delete_object", indexName, attrs, func(index *search.Index) error {
		if _, err := index.DeleteObject(objectID); err != nil {
			return errors.Wrapf(err, "failed to delete object from Algolia index %s", indexName)
		}
		return nil
	})
}

// BatchSaveObjects upserts objects in one request. An empty batch is a no-op.
func (c *Client) BatchSaveObjects(ctx context.Context, indexName string, objects []map[string]any) error {
	if len(objects) == 0 {
		return nil
	}
	attrs := []attribute.KeyValue{attribute.Int("algolia.object_count", len(objects))}
	return c.withIndex(ctx, "batch_save_objects", indexName, attrs, func(index *search.Index) error {
		if _, err := index.SaveObjects(objects); err != nil {
			return errors.Wrapf(err, "failed to batch save objects to Algolia index %s", indexName)
		}
		return nil
	})
}

// BatchDeleteObjects removes objects by ID in one request. An empty batch is
// a no-op.
func (c *Client) BatchDeleteObjects(ctx context.Context, indexName string, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}
	attrs := []attribute.KeyValue{attribute.Int("algolia.object_count", len(objectIDs))}
	return c.withIndex(ctx, "batch_delete_objects", indexName, attrs, func(index *search.Index) error {
		if _, err := index.DeleteObjects(objectIDs); err != nil {
			return errors.Wrapf(err, "failed to batch delete objects from Algolia index %s", indexName)
		}
		return nil
	})
}
