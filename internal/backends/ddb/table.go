package ddb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	log "github.com/sirupsen/logrus"
)

const (
	SUser = "USER"
	SRate = "RATE"
	SWin  = "WIN"
)

func pkUser(id string) string         { return fmt.Sprintf("%s#%s", SUser, id) }
func skProfile() string               { return "PROFILE" }
func pkRate(scope string) string      { return fmt.Sprintf("%s#%s", SRate, scope) }
func skRateWin(epochWin int64) string { return fmt.Sprintf("%s#%d", SWin, epochWin) }

// parseUserID extracts the user id from a USER#<id> partition key.
// Ids may themselves contain '#', so only the first separator counts.
func parseUserID(pk string) (string, error) {
	prefix := SUser + "#"
	if !strings.HasPrefix(pk, prefix) {
		return "", fmt.Errorf("not a user key: %q", pk)
	}
	return pk[len(prefix):], nil
}

func createTableIfNotExists(client *dynamodb.Client, table string) {
	_, err := client.CreateTable(context.Background(), &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []ddbTypes.AttributeDefinition{
			{AttributeName: awsString("PK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
			{AttributeName: awsString("SK"), AttributeType: ddbTypes.ScalarAttributeTypeS},
		},
		KeySchema: []ddbTypes.KeySchemaElement{
			{AttributeName: awsString("PK"), KeyType: ddbTypes.KeyTypeHash},
			{AttributeName: awsString("SK"), KeyType: ddbTypes.KeyTypeRange},
		},
		BillingMode: ddbTypes.BillingModePayPerRequest,
	})
	var re *ddbTypes.ResourceInUseException
	if err != nil && !errors.As(err, &re) {
		log.Fatalf("Failed to create table %s: %v", table, err)
	}
}

func awsBool(b bool) *bool               { return &b }
func awsString(s string) *string         { return &s }
func errorAs(err error, target any) bool { return errors.As(err, target) }
