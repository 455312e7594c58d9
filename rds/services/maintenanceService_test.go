package services

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

type mockedMaintenance struct {
	rdsiface.RDSAPI
	Pending  []*rds.ResourcePendingMaintenanceActions
	ApplyErr error
	Applied  []*rds.ApplyPendingMaintenanceActionInput
}

func (m *mockedMaintenance) DescribePendingMaintenanceActions(in *rds.DescribePendingMaintenanceActionsInput) (*rds.DescribePendingMaintenanceActionsOutput, error) {
	return &rds.DescribePendingMaintenanceActionsOutput{PendingMaintenanceActions: m.Pending}, nil
}

func (m *mockedMaintenance) ApplyPendingMaintenanceAction(in *rds.ApplyPendingMaintenanceActionInput) (*rds.ApplyPendingMaintenanceActionOutput, error) {
	if m.ApplyErr != nil {
		return nil, m.ApplyErr
	}
	m.Applied = append(m.Applied, in)
	return &rds.ApplyPendingMaintenanceActionOutput{}, nil
}

func (m *mockedMaintenance) DescribeDBInstances(in *rds.DescribeDBInstancesInput) (*rds.DescribeDBInstancesOutput, error) {
	return &rds.DescribeDBInstancesOutput{
		DBInstances: []*rds.DBInstance{
			{
				DBInstanceIdentifier: in.DBInstanceIdentifier,
				DBInstanceStatus:     aws.String(StatusAvailable),
			},
		},
	}, nil
}

func systemUpdatePending() []*rds.ResourcePendingMaintenanceActions {
	return []*rds.ResourcePendingMaintenanceActions{
		{
			PendingMaintenanceActionDetails: []*rds.PendingMaintenanceAction{
				{
					Action:      aws.String("system-update"),
					Description: aws.String("New Operating System update is available"),
				},
			},
		},
	}
}

func fakeWaiter(client rdsiface.RDSAPI) StatusWaiter {
	return StatusWaiter{
		Client: client,
		Sleep:  func(time.Duration) {},
	}
}

func TestApplyPendingMaintenanceNothingPending(t *testing.T) {
	client := &mockedMaintenance{}
	if err := ApplyPendingMaintenance(client, "orders-db", "arn:aws:rds:eu-west-1:123:db:orders-db", fakeWaiter(client)); err != nil {
		t.Fatalf("unexpected error, %v", err)
	}
	if len(client.Applied) != 0 {
		t.Fatalf("expected no apply call, got %d", len(client.Applied))
	}
}

func TestApplyPendingMaintenanceApplies(t *testing.T) {
	client := &mockedMaintenance{Pending: systemUpdatePending()}
	if err := ApplyPendingMaintenance(client, "orders-db", "arn:aws:rds:eu-west-1:123:db:orders-db", fakeWaiter(client)); err != nil {
		t.Fatalf("unexpected error, %v", err)
	}
	if len(client.Applied) != 1 {
		t.Fatalf("expected 1 apply call, got %d", len(client.Applied))
	}
	applied := client.Applied[0]
	if aws.StringValue(applied.ApplyAction) != "system-update" {
		t.Fatalf("expected system-update, got %s", aws.StringValue(applied.ApplyAction))
	}
	if aws.StringValue(applied.OptInType) != "immediate" {
		t.Fatalf("expected immediate opt-in, got %s", aws.StringValue(applied.OptInType))
	}
}

func TestApplyPendingMaintenanceBenignRace(t *testing.T) {
	client := &mockedMaintenance{
		Pending:  systemUpdatePending(),
		ApplyErr: errors.New("InvalidParameterCombination: There is no pending system-update action for this resource"),
	}
	if err := ApplyPendingMaintenance(client, "orders-db", "arn:aws:rds:eu-west-1:123:db:orders-db", fakeWaiter(client)); err != nil {
		t.Fatalf("expected the list/apply race to be treated as success, got %v", err)
	}
}

func TestApplyPendingMaintenanceApplyFailure(t *testing.T) {
	client := &mockedMaintenance{
		Pending:  systemUpdatePending(),
		ApplyErr: errors.New("internal failure"),
	}
	if err := ApplyPendingMaintenance(client, "orders-db", "arn:aws:rds:eu-west-1:123:db:orders-db", fakeWaiter(client)); err == nil {
		t.Fatal("expected a genuine apply failure to propagate")
	}
}
