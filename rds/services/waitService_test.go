package services

import (
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

type scriptedStatusClient struct {
	rdsiface.RDSAPI
	Statuses []string
	Err      error
	Calls    int
}

func (m *scriptedStatusClient) DescribeDBInstances(in *rds.DescribeDBInstancesInput) (*rds.DescribeDBInstancesOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	status := m.Statuses[len(m.Statuses)-1]
	if m.Calls < len(m.Statuses) {
		status = m.Statuses[m.Calls]
	}
	m.Calls++
	return &rds.DescribeDBInstancesOutput{
		DBInstances: []*rds.DBInstance{
			{
				DBInstanceIdentifier: in.DBInstanceIdentifier,
				DBInstanceStatus:     aws.String(status),
			},
		},
	}, nil
}

func TestWaitUntilAvailable(t *testing.T) {
	client := &scriptedStatusClient{Statuses: []string{"modifying", "modifying", "available"}}
	var slept []time.Duration
	waiter := StatusWaiter{
		Client:       client,
		InitialDelay: 90 * time.Second,
		PollInterval: 60 * time.Second,
		Sleep:        func(d time.Duration) { slept = append(slept, d) },
	}

	if err := waiter.WaitUntilAvailable("orders-db"); err != nil {
		t.Fatalf("unexpected error, %v", err)
	}
	if client.Calls != 3 {
		t.Fatalf("expected 3 polls, got %d", client.Calls)
	}
	if len(slept) != 3 {
		t.Fatalf("expected initial delay plus 2 poll sleeps, got %d sleeps", len(slept))
	}
	if slept[0] != 90*time.Second {
		t.Fatalf("expected the initial delay first, got %v", slept[0])
	}
	if slept[1] != 60*time.Second || slept[2] != 60*time.Second {
		t.Fatalf("expected fixed poll intervals, got %v", slept[1:])
	}
}

func TestWaitPropagatesDescribeError(t *testing.T) {
	client := &scriptedStatusClient{Err: errors.New("access denied")}
	waiter := StatusWaiter{
		Client: client,
		Sleep:  func(time.Duration) {},
	}
	if err := waiter.WaitUntilAvailable("orders-db"); err == nil {
		t.Fatal("expected describe error to propagate")
	}
}

func TestWaitMaxPolls(t *testing.T) {
	client := &scriptedStatusClient{Statuses: []string{"upgrading"}}
	waiter := StatusWaiter{
		Client:   client,
		MaxPolls: 4,
		Sleep:    func(time.Duration) {},
	}
	if err := waiter.WaitUntilAvailable("orders-db"); err == nil {
		t.Fatal("expected error once the poll cap is reached")
	}
	if client.Calls != 4 {
		t.Fatalf("expected exactly 4 polls, got %d", client.Calls)
	}
}
