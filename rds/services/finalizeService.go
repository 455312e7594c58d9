package services

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	log "github.com/sirupsen/logrus"
)

// ShipLogs copies every file of the instance run-log directory to the
// durable bucket under a per-instance prefix, so concurrent fleet runs
// never collide. An empty bucket disables shipping.
func ShipLogs(uploader s3manageriface.UploaderAPI, bucket string, logDir string, instanceID string) error {
	if bucket == "" {
		return nil
	}
	files, err := ioutil.ReadDir(logDir)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to list run log directory %s: %s", logDir, err.Error()))
	}
	shipped := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		body, err := ioutil.ReadFile(filepath.Join(logDir, file.Name()))
		if err != nil {
			return fmt.Errorf(fmt.Sprintf("failed to read run log file %s: %s", file.Name(), err.Error()))
		}
		input := s3manager.UploadInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(instanceID + "/" + file.Name()),
			Body:   bytes.NewReader(body),
		}
		if _, err := uploader.Upload(&input); err != nil {
			return fmt.Errorf(fmt.Sprintf("failed to upload %s to s3://%s: %s", file.Name(), bucket, err.Error()))
		}
		shipped++
	}
	log.Infof("shipped %d run log file(s) to s3://%s/%s", shipped, bucket, instanceID)
	return nil
}

// Notify publishes a single completion message to the configured topic.
// An empty topic ARN disables notification.
func Notify(client snsiface.SNSAPI, topicARN string, instanceID string, phase string, outcome string) error {
	if topicARN == "" {
		return nil
	}
	input := sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String("upgctl " + instanceID),
		Message:  aws.String(fmt.Sprintf("upgctl run for %s (phase %s) finished: %s", instanceID, phase, outcome)),
	}
	if _, err := client.Publish(&input); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to publish completion notification: %s", err.Error()))
	}
	log.Infof("published completion notification for %s", instanceID)
	return nil
}
