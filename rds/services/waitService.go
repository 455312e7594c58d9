package services

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

// StatusAvailable is the terminal state a DB instance settles in after a
// modification completes.
const StatusAvailable = "available"

const (
	defaultInitialDelay = 90 * time.Second
	defaultPollInterval = 60 * time.Second
)

// StatusWaiter polls a DB instance until it reports available. MaxPolls
// zero means no bound; provider-side upgrades legitimately take long,
// unpredictable durations, so the caller decides whether to cap.
type StatusWaiter struct {
	Client       rdsiface.RDSAPI
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxPolls     int
	Sleep        func(time.Duration)
}

// NewStatusWaiter returns a waiter with the production delays.
func NewStatusWaiter(client rdsiface.RDSAPI) StatusWaiter {
	return StatusWaiter{
		Client:       client,
		InitialDelay: defaultInitialDelay,
		PollInterval: defaultPollInterval,
		Sleep:        time.Sleep,
	}
}

// WaitUntilAvailable blocks until the instance status equals available.
// The initial delay avoids racing the state transition that was just
// triggered. Describe failures propagate; only the not-yet-available
// condition is retried.
func (w StatusWaiter) WaitUntilAvailable(instanceID string) error {
	w.Sleep(w.InitialDelay)
	polls := 0
	for {
		status, err := InstanceStatus(w.Client, instanceID)
		if err != nil {
			return err
		}
		polls++
		log.Infof("instance %s reported status %s at %s", instanceID, status, time.Now().Format(time.RFC3339))
		if status == StatusAvailable {
			return nil
		}
		if w.MaxPolls > 0 && polls >= w.MaxPolls {
			return fmt.Errorf(fmt.Sprintf("instance %s still %s after %d polls", instanceID, status, polls))
		}
		w.Sleep(w.PollInterval)
	}
}

// InstanceStatus reads the current status of a DB instance.
func InstanceStatus(client rdsiface.RDSAPI, instanceID string) (string, error) {
	instance, err := DescribeInstance(client, instanceID)
	if err != nil {
		return "", err
	}
	return aws.StringValue(instance.DBInstanceStatus), nil
}

// DescribeInstance fetches the full description of a DB instance.
func DescribeInstance(client rdsiface.RDSAPI, instanceID string) (*rds.DBInstance, error) {
	input := rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(instanceID),
	}
	out, err := client.DescribeDBInstances(&input)
	if err != nil {
		return nil, fmt.Errorf(fmt.Sprintf("failed to describe RDS instance: %s", err.Error()))
	}
	if len(out.DBInstances) == 0 {
		return nil, fmt.Errorf(fmt.Sprintf("RDS instance %s not found", instanceID))
	}
	return out.DBInstances[0], nil
}
