// Package ddb decodes DynamoDB stream events carrying catalog records.
package ddb

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/fuzzyx"
	"github.com/letmevibethatforyou/fuzzyx/algolia"
)

// DynamoDBEvent represents a DynamoDB stream event.
type DynamoDBEvent struct {
	Records []DynamoDBEventRecord `json:"Records"`
}

// DynamoDBEventRecord represents a single DynamoDB stream record.
type DynamoDBEventRecord struct {
	AWSRegion      string               `json:"awsRegion"`
	Change         DynamoDBStreamRecord `json:"dynamodb"`
	EventID        string               `json:"eventID"`
	EventName      string               `json:"eventName"`
	EventSource    string               `json:"eventSource"`
	EventVersion   string               `json:"eventVersion"`
	EventSourceArn string               `json:"eventSourceARN"`
}

// DynamoDBStreamRecord represents the DynamoDB stream data.
type DynamoDBStreamRecord struct {
	ApproximateCreationDateTime int64                           `json:"ApproximateCreationDateTime,omitempty"`
	Keys                        map[string]types.AttributeValue `json:"Keys,omitempty"`
	NewImage                    map[string]types.AttributeValue `json:"NewImage,omitempty"`
	OldImage                    map[string]types.AttributeValue `json:"OldImage,omitempty"`
	SequenceNumber              string                          `json:"SequenceNumber"`
	SizeBytes                   int64                           `json:"SizeBytes"`
	StreamViewType              string                          `json:"StreamViewType"`
}

// DynamoDBOperationType represents the type of DynamoDB operation.
type DynamoDBOperationType string

const (
	DynamoDBOperationTypeInsert DynamoDBOperationType = "INSERT"
	DynamoDBOperationTypeModify DynamoDBOperationType = "MODIFY"
	DynamoDBOperationTypeRemove DynamoDBOperationType = "REMOVE"
)

// SearchTextField holds the denormalized identity text stored with each
// indexed object. The Algolia searcher scores it by default.
const SearchTextField = algolia.SearchTextField

// Record is a catalog entry: pk is the record ID, sk names the index
// (suppliers, customers, products, ...) and object holds the record itself.
type Record struct {
	ID        string         `dynamodbav:"pk"`
	IndexName string         `dynamodbav:"sk"`
	Object    map[string]any `dynamodbav:"object"`
}

// ErrIncompleteRecord is returned by Validate for records missing a key or body.
var ErrIncompleteRecord = errors.New("ddb: incomplete record")

// UnmarshalRecord converts a DynamoDB image (or key set) into a Record.
func UnmarshalRecord(image map[string]types.AttributeValue) (Record, error) {
	var record Record
	if err := attributevalue.UnmarshalMap(image, &record); err != nil {
		return Record{}, errors.Wrap(err, "failed to unmarshal record")
	}
	return record, nil
}

// ValidateKeys checks the fields needed to address the record.
func (r Record) ValidateKeys() error {
	switch {
	case r.ID == "":
		return errors.Wrap(ErrIncompleteRecord, "missing pk")
	case r.IndexName == "":
		return errors.Wrapf(ErrIncompleteRecord, "record %s: missing sk", r.ID)
	}
	return nil
}

// Validate checks keys and body.
func (r Record) Validate() error {
	if err := r.ValidateKeys(); err != nil {
		return err
	}
	if r.Object == nil {
		return errors.Wrapf(ErrIncompleteRecord, "record %s: missing object", r.ID)
	}
	return nil
}

// SearchText joins the non-empty default identity fields of the object, in
// fuzzyx.DefaultFields order.
func (r Record) SearchText() string {
	var parts []string
	for _, name := range fuzzyx.DefaultFieldNames {
		v, err := fuzzyx.Lookup(r.Object, name)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(fuzzyx.Text(v)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// IndexObject returns a copy of the object with objectID and the search text
// set, ready for Algolia.
func (r Record) IndexObject() map[string]any {
	obj := make(map[string]any, len(r.Object)+2)
	for k, v := range r.Object {
		obj[k] = v
	}
	obj["objectID"] = r.ID
	obj[SearchTextField] = r.SearchText()
	return obj
}
