package ddb

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// windowGrace keeps a finished window around a little longer than needed
// before DynamoDB TTL may reap it.
const windowGrace = 2 * time.Minute

// RateLimiter is a fixed-window counter. A window is one item whose count
// is bumped by a conditional ADD, so a full window rejects the update.
type RateLimiter struct {
	table string
	cli   *dynamodb.Client
	now   func() time.Time
}

func NewRateLimiter(table string, cli *dynamodb.Client) *RateLimiter {
	createTableIfNotExists(cli, table)
	return &RateLimiter{table: table, cli: cli, now: time.Now}
}

func (s *RateLimiter) Acquire(ctx context.Context, scope string, ratePerWindow int, window time.Duration) (bool, error) {
	if ratePerWindow <= 0 {
		return false, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	seconds := max(int64(window/time.Second), 1)
	now := s.now().Unix()
	epochWin := now / seconds
	expiresAt := (epochWin+1)*seconds + int64(windowGrace/time.Second)

	_, err := s.cli.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.table,
		Key: map[string]ddbTypes.AttributeValue{
			"PK": &ddbTypes.AttributeValueMemberS{Value: pkRate(scope)},
			"SK": &ddbTypes.AttributeValueMemberS{Value: skRateWin(epochWin)},
		},
		UpdateExpression: awsString("SET #ttl = if_not_exists(#ttl, :ttl) ADD #count :one"),
		ExpressionAttributeNames: map[string]string{
			"#count": "count",
			"#ttl":   "ttl",
		},
		ExpressionAttributeValues: map[string]ddbTypes.AttributeValue{
			":one": &ddbTypes.AttributeValueMemberN{Value: "1"},
			":ttl": &ddbTypes.AttributeValueMemberN{Value: itoa(expiresAt)},
			":cap": &ddbTypes.AttributeValueMemberN{Value: itoa(int64(ratePerWindow))},
		},
		ConditionExpression: awsString("attribute_not_exists(#count) OR #count < :cap"),
	})
	if err != nil {
		var cc *ddbTypes.ConditionalCheckFailedException
		if errorAs(err, &cc) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func itoa(i int64) string { return strconv.FormatInt(i, 10) }
