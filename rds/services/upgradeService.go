package services

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"

	"github.com/opslift/upgctl/rds/persist"
)

// ExecuteUpgrade issues the engine version change and verifies its
// outcome. The full instance description is persisted to the run log
// first, as the rollback reference.
func ExecuteUpgrade(client rdsiface.RDSAPI, instanceID string, targetVersion string, parameterGroup string, logDir string, runStamp string, waiter StatusWaiter) error {
	before, err := DescribeInstance(client, instanceID)
	if err != nil {
		return err
	}
	if err := persist.Save(logDir, "pre-upgrade-config-"+runStamp, before); err != nil {
		return err
	}

	input := rds.ModifyDBInstanceInput{
		DBInstanceIdentifier:     aws.String(instanceID),
		EngineVersion:            aws.String(targetVersion),
		DBParameterGroupName:     aws.String(parameterGroup),
		AllowMajorVersionUpgrade: aws.Bool(true),
		ApplyImmediately:         aws.Bool(true),
	}
	if _, err := client.ModifyDBInstance(&input); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to modify instance %s to version %s: %s", instanceID, targetVersion, err.Error()))
	}
	log.Infof("version change to %s submitted for %s with parameter group %s", targetVersion, instanceID, parameterGroup)

	if err := waiter.WaitUntilAvailable(instanceID); err != nil {
		return err
	}

	after, err := DescribeInstance(client, instanceID)
	if err != nil {
		return err
	}
	observed := aws.StringValue(after.EngineVersion)
	if observed != targetVersion {
		// the modify call succeeded but the end state is wrong; keep this
		// distinguishable from a plain call failure
		return fmt.Errorf(fmt.Sprintf("instance %s settled on version %s instead of the requested %s", instanceID, observed, targetVersion))
	}
	log.Infof("instance %s is now on version %s", instanceID, observed)
	return nil
}
