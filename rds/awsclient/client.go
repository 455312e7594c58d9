package awsclient

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/sns"
)

type AWSSession struct {
	RDS      *rds.RDS
	Secrets  *secretsmanager.SecretsManager
	SNS      *sns.SNS
	Uploader *s3manager.Uploader
}

func CreateSession(region string, profile string) (*AWSSession, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewSharedCredentials("", profile),
	})
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to setup aws session: %s", err.Error()))
	}

	if _, err := sess.Config.Credentials.Get(); err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to retrieve aws credentials: %s", err.Error()))
	}

	return &AWSSession{
		RDS:      rds.New(sess),
		Secrets:  secretsmanager.New(sess),
		SNS:      sns.New(sess),
		Uploader: s3manager.NewUploader(sess),
	}, nil
}
