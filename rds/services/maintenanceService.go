package services

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

const systemUpdateAction = "system-update"

// ApplyPendingMaintenance applies any queued system-update action ahead of
// the version change, so the instance restarts once instead of twice.
func ApplyPendingMaintenance(client rdsiface.RDSAPI, instanceID string, instanceARN string, waiter StatusWaiter) error {
	input := rds.DescribePendingMaintenanceActionsInput{
		Filters: []*rds.Filter{
			{
				Name:   aws.String("db-instance-id"),
				Values: []*string{aws.String(instanceARN)},
			},
		},
	}
	out, err := client.DescribePendingMaintenanceActions(&input)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to list pending maintenance actions: %s", err.Error()))
	}

	pending := false
	for _, resource := range out.PendingMaintenanceActions {
		for _, action := range resource.PendingMaintenanceActionDetails {
			log.Infof("pending maintenance action %s: %s", aws.StringValue(action.Action), aws.StringValue(action.Description))
			if aws.StringValue(action.Action) == systemUpdateAction {
				pending = true
			}
		}
	}
	if !pending {
		log.Info("no pending system-update maintenance action")
		return nil
	}

	applyInput := rds.ApplyPendingMaintenanceActionInput{
		ApplyAction:        aws.String(systemUpdateAction),
		OptInType:          aws.String("immediate"),
		ResourceIdentifier: aws.String(instanceARN),
	}
	if _, err := client.ApplyPendingMaintenanceAction(&applyInput); err != nil {
		// the action can vanish between the listing and the apply call
		if strings.Contains(err.Error(), "no pending") {
			log.Info("maintenance action was no longer pending when applied")
			return nil
		}
		return fmt.Errorf(fmt.Sprintf("failed to apply pending maintenance: %s", err.Error()))
	}
	log.Infof("applied pending %s maintenance on %s", systemUpdateAction, instanceID)

	return waiter.WaitUntilAvailable(instanceID)
}
