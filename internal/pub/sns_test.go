package pub

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	in  *sns.PublishInput
	err error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = params
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, f.err
}

func TestSNSPublishRaw(t *testing.T) {
	f := &fakeSNS{}
	p := NewSNS(f)
	require.NoError(t, p.PublishRaw(context.Background(), "arn:topic", []byte(`{"event":"repo_added"}`)))
	require.Equal(t, "arn:topic", aws.ToString(f.in.TopicArn))
	require.Equal(t, `{"event":"repo_added"}`, aws.ToString(f.in.Message))
	require.Equal(t, "application/json", aws.ToString(f.in.MessageAttributes["content-type"].StringValue))

	f.err = errors.New("throttled")
	require.Error(t, p.PublishRaw(context.Background(), "arn:topic", nil))
}

func TestNoop(t *testing.T) {
	require.NoError(t, Noop{}.PublishRaw(context.Background(), "x", []byte("y")))
}
