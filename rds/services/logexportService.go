package services

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

var wantedLogExports = []string{"postgresql", "upgrade"}

// EnableLogExports publishes the postgresql and upgrade logs to the
// observability sink so the engine swap can be followed from outside.
// Already-enabled exports are left untouched.
func EnableLogExports(client rdsiface.RDSAPI, instanceID string, waiter StatusWaiter) error {
	instance, err := DescribeInstance(client, instanceID)
	if err != nil {
		return err
	}

	enabled := aws.StringValueSlice(instance.EnabledCloudwatchLogsExports)
	var missing []string
	for _, want := range wantedLogExports {
		found := false
		for _, have := range enabled {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	if len(missing) == 0 {
		log.Info("cloudwatch log exports already enabled")
		return nil
	}

	input := rds.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(instanceID),
		CloudwatchLogsExportConfiguration: &rds.CloudwatchLogsExportConfiguration{
			EnableLogTypes: aws.StringSlice(missing),
		},
		ApplyImmediately: aws.Bool(true),
	}
	if _, err := client.ModifyDBInstance(&input); err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to enable log exports on %s: %s", instanceID, err.Error()))
	}
	log.Infof("enabled cloudwatch log exports %v on %s", missing, instanceID)

	return waiter.WaitUntilAvailable(instanceID)
}
