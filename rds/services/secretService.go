package services

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// CredentialBundle holds the master user credentials for one database
// operation. Resolved fresh every time connectivity is needed so secret
// rotation mid-run is tolerated; never written to disk.
type CredentialBundle struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ResolveCredentials follows the secret reference tagged on the instance
// and resolves it through Secrets Manager.
func ResolveCredentials(rdsClient rdsiface.RDSAPI, secretsClient secretsmanageriface.SecretsManagerAPI, instanceARN string, tagKey string) (*CredentialBundle, error) {
	tagsInput := rds.ListTagsForResourceInput{
		ResourceName: aws.String(instanceARN),
	}
	tags, err := rdsClient.ListTagsForResource(&tagsInput)
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to list instance tags: %s", err.Error()))
	}

	var secretID string
	for _, tag := range tags.TagList {
		if aws.StringValue(tag.Key) == tagKey {
			secretID = aws.StringValue(tag.Value)
		}
	}
	if secretID == "" {
		return nil, fmt.Errorf(fmt.Sprintf("instance carries no %s tag, cannot resolve master credentials", tagKey))
	}

	value, err := secretsClient.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to resolve secret %s: %s", secretID, err.Error()))
	}

	bundle := &CredentialBundle{}
	if err := json.Unmarshal([]byte(aws.StringValue(value.SecretString)), bundle); err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to decode secret %s: %s", secretID, err.Error()))
	}
	if bundle.Username == "" || bundle.Password == "" {
		return nil, fmt.Errorf(fmt.Sprintf("secret %s is missing username or password", secretID))
	}
	return bundle, nil
}
