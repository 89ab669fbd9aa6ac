package documents

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoRepo.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoRepo implements Repo on a DynamoDB table keyed by document_id.
type DynamoRepo struct {
	api   DynamoAPI
	table string
}

// NewDynamoRepo loads AWS config for region and returns a repo for table.
func NewDynamoRepo(ctx context.Context, region, table string) (*DynamoRepo, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewDynamoRepoWithAPI(dynamodb.NewFromConfig(awsCfg), table), nil
}

// NewDynamoRepoWithAPI builds a repo over an existing client.
func NewDynamoRepoWithAPI(api DynamoAPI, table string) *DynamoRepo {
	return &DynamoRepo{api: api, table: table}
}

// Put writes the record as a single item, replacing any existing item.
func (r *DynamoRepo) Put(ctx context.Context, rec Record) error {
	if err := validate(rec); err != nil {
		return err
	}
	rec.Metadata.Metadata = cloneTags(rec.Metadata.Metadata)
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.DocumentID, err)
	}
	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put item table=%s id=%s: %w", r.table, rec.DocumentID, err)
	}
	return nil
}

// Get reads the record with a strongly consistent read.
func (r *DynamoRepo) Get(ctx context.Context, documentID string) (Record, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"document_id": &types.AttributeValueMemberS{Value: documentID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Record{}, fmt.Errorf("dynamodb get item table=%s id=%s: %w", r.table, documentID, err)
	}
	if len(out.Item) == 0 {
		return Record{}, ErrNotFound
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal record %s: %w", documentID, err)
	}
	if rec.Metadata.Metadata == nil {
		rec.Metadata.Metadata = map[string]string{}
	}
	return rec, nil
}

var _ Repo = (*DynamoRepo)(nil)
