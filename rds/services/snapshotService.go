package services

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

// TakeSnapshot creates a manual snapshot and waits for the instance to
// settle back to available before any further work.
func TakeSnapshot(client rdsiface.RDSAPI, instanceID string, runStamp string, waiter StatusWaiter) (string, error) {
	snapshotID := fmt.Sprintf("upgctl-%s-%s", instanceID, runStamp)
	input := rds.CreateDBSnapshotInput{
		DBInstanceIdentifier: aws.String(instanceID),
		DBSnapshotIdentifier: aws.String(snapshotID),
	}
	if _, err := client.CreateDBSnapshot(&input); err != nil {
		return "", fmt.Errorf(fmt.Sprintf("failed to create snapshot %s: %s", snapshotID, err.Error()))
	}
	log.Infof("created manual snapshot %s", snapshotID)

	if err := waiter.WaitUntilAvailable(instanceID); err != nil {
		return "", err
	}
	return snapshotID, nil
}
