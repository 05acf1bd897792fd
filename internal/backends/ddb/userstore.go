package ddb

import (
	"context"
	"fmt"
	"issuebot/internal/types"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// UserStore keeps one item per user (PK=USER#<id>, SK=PROFILE). PutItem
// replaces the item atomically.
type UserStore struct {
	table string
	cli   *dynamodb.Client
}

type userItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	types.UserRecord
}

func NewUserStore(table string, cli *dynamodb.Client) *UserStore {
	// Creates the table only if it doesn't exist.
	createTableIfNotExists(cli, table)
	return &UserStore{table: table, cli: cli}
}

func (s *UserStore) GetUser(ctx context.Context, id string) (types.UserRecord, error) {
	out, err := s.cli.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkUser(id)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skProfile()},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, err, "")
	}
	if out.Item == nil {
		return types.UserRecord{}, types.ErrNotFound
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return types.UserRecord{}, types.Err(types.ErrDataStoreAccess, err, "user %s", id)
	}
	rec := item.UserRecord
	rec.ID = id
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	return rec, nil
}

func (s *UserStore) ListUsers(ctx context.Context) ([]string, error) {
	// Scans the table for profile items and only projects the PK
	ids := make([]string, 0)
	paginator := dynamodb.NewScanPaginator(s.cli, &dynamodb.ScanInput{
		TableName:        &s.table,
		FilterExpression: awsString("SK = :sk"),
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":sk": &ddbTypes.AttributeValueMemberS{Value: skProfile()},
		},
		ProjectionExpression: awsString("PK"),
	})
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			var pk struct {
				PK string `dynamodbav:"PK"`
			}
			if err := attributevalue.UnmarshalMap(item, &pk); err != nil {
				return nil, err
			}
			id, err := parseUserID(pk.PK)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *UserStore) PutUser(ctx context.Context, rec types.UserRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if rec.Repos == nil {
		rec.Repos = []string{}
	}
	item, err := attributevalue.MarshalMap(userItem{
		PK:         pkUser(rec.ID),
		SK:         skProfile(),
		UserRecord: rec,
	})
	if err != nil {
		return err
	}
	_, err = s.cli.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	})
	return err
}

func (s *UserStore) ClearAll(ctx context.Context) error {
	_, err := s.cli.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	// wait until the table is deleted
	err = dynamodb.NewTableNotExistsWaiter(s.cli).Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, 30*time.Second)
	if err != nil {
		return err
	}
	createTableIfNotExists(s.cli, s.table)
	return nil
}
