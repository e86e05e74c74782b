package messenger

import (
	"context"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const itemAttribute = "item"

// Queue publishes to a single SQS queue and tags each message with its item.
type Queue struct {
	client   sqsiface.SQSAPI
	queueUrl string
}

func NewQueue(queueUrl string, cfg config.AwsConfig) (MessageService, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "aws session")
	}

	return NewQueueWithClient(sqs.New(sess), queueUrl), nil
}

func NewQueueWithClient(client sqsiface.SQSAPI, queueUrl string) *Queue {
	return &Queue{client: client, queueUrl: queueUrl}
}

// SendMessage ignores reliable; SQS acknowledges every accepted message.
func (q *Queue) SendMessage(item Item, body []byte, _ bool) error {
	out, err := q.client.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueUrl),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			itemAttribute: {DataType: aws.String("String"), StringValue: aws.String(item.queue())},
		},
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", q.queueUrl)).Error("[Queue] Failed to send message")
		return err
	}

	zap.L().With(zap.String("messageId", aws.StringValue(out.MessageId)), zap.String("item", item.queue())).Debug("[Queue] Published message")

	return nil
}

// ConsumeMessages long-polls the queue, hands every message to callback and deletes it.
func (q *Queue) ConsumeMessages(ctx context.Context, item Item, callback func(msg string)) error {
	for {
		out, err := q.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(q.queueUrl),
			MaxNumberOfMessages:   aws.Int64(10),
			WaitTimeSeconds:       aws.Int64(20),
			MessageAttributeNames: aws.StringSlice([]string{itemAttribute}),
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			zap.L().With(zap.Error(err)).Error("[Queue] Failed to receive messages")
			return err
		}

		for _, msg := range out.Messages {
			if attr, ok := msg.MessageAttributes[itemAttribute]; !ok || matches(item, aws.StringValue(attr.StringValue)) {
				callback(aws.StringValue(msg.Body))
			}

			if _, err := q.client.DeleteMessageWithContext(context.Background(), &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(q.queueUrl),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				zap.L().With(zap.Error(err)).Error("[Queue] Failed to delete message")
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func matches(item Item, routingKey string) bool {
	prefix := item.queue()
	return routingKey == prefix || len(routingKey) > len(prefix) && routingKey[:len(prefix)+1] == prefix+"."
}
