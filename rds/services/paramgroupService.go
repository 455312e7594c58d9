package services

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	log "github.com/sirupsen/logrus"
)

// ModifyDBParameterGroup caps a single call at 20 parameters, hence the
// tuning set is split into two batches.
const parameterBatchMax = 20

func immediate(name string, value string) *rds.Parameter {
	return &rds.Parameter{
		ParameterName:  aws.String(name),
		ParameterValue: aws.String(value),
		ApplyMethod:    aws.String("immediate"),
	}
}

func pendingReboot(name string, value string) *rds.Parameter {
	return &rds.Parameter{
		ParameterName:  aws.String(name),
		ParameterValue: aws.String(value),
		ApplyMethod:    aws.String("pending-reboot"),
	}
}

// Security and logging hardening, all dynamic parameters.
func hardeningBatch() []*rds.Parameter {
	return []*rds.Parameter{
		immediate("log_connections", "1"),
		immediate("log_disconnections", "1"),
		immediate("log_statement", "ddl"),
		immediate("log_min_duration_statement", "5000"),
		immediate("log_lock_waits", "1"),
		immediate("log_temp_files", "10240"),
		immediate("log_autovacuum_min_duration", "10000"),
		immediate("password_encryption", "scram-sha-256"),
		immediate("ssl_min_protocol_version", "TLSv1.2"),
	}
}

// Replication and timeout tuning; static parameters take effect at the
// reboot the version change causes anyway.
func replicationBatch() []*rds.Parameter {
	return []*rds.Parameter{
		pendingReboot("max_replication_slots", "20"),
		pendingReboot("max_wal_senders", "20"),
		pendingReboot("max_worker_processes", "16"),
		immediate("wal_sender_timeout", "60000"),
		immediate("wal_receiver_timeout", "60000"),
		immediate("statement_timeout", "0"),
		immediate("idle_in_transaction_session_timeout", "86400000"),
		immediate("lock_timeout", "0"),
		immediate("deadlock_timeout", "1000"),
	}
}

// ParameterGroupName derives a deterministic group name so repeated runs
// find the same group.
func ParameterGroupName(engine string, targetFamily int, instanceID string) string {
	return fmt.Sprintf("%s%d-%s", engine, targetFamily, instanceID)
}

// ParameterGroupFamily is the engine-family string the group is bound to,
// e.g. postgres16.
func ParameterGroupFamily(engine string, targetFamily int) string {
	return fmt.Sprintf("%s%d", engine, targetFamily)
}

// EnsureParameterGroup returns the name of a parameter group valid for the
// target engine family, creating it when missing. Idempotent: a second
// call with the same inputs reuses the existing group without mutation.
func EnsureParameterGroup(client rdsiface.RDSAPI, engine string, targetFamily int, instanceID string, tune bool) (string, error) {
	name := ParameterGroupName(engine, targetFamily, instanceID)
	exists, err := parameterGroupExists(client, name)
	if err != nil {
		return "", err
	}
	if exists {
		log.Infof("parameter group %s already exists, reusing", name)
		return name, nil
	}

	family := ParameterGroupFamily(engine, targetFamily)
	createInput := rds.CreateDBParameterGroupInput{
		DBParameterGroupName:   aws.String(name),
		DBParameterGroupFamily: aws.String(family),
		Description:            aws.String("created by upgctl for the major version upgrade of " + instanceID),
		Tags: []*rds.Tag{
			{Key: aws.String("Name"), Value: aws.String(name)},
		},
	}
	if _, err := client.CreateDBParameterGroup(&createInput); err != nil {
		return "", fmt.Errorf(fmt.Sprintf("failed to create parameter group %s: %s", name, err.Error()))
	}
	log.Infof("created parameter group %s with family %s", name, family)

	if tune {
		if err := applyParameterBatches(client, name); err != nil {
			return "", err
		}
	}
	return name, nil
}

func parameterGroupExists(client rdsiface.RDSAPI, name string) (bool, error) {
	input := rds.DescribeDBParameterGroupsInput{
		DBParameterGroupName: aws.String(name),
	}
	if _, err := client.DescribeDBParameterGroups(&input); err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == rds.ErrCodeDBParameterGroupNotFoundFault {
			return false, nil
		}
		return false, fmt.Errorf(fmt.Sprintf("failed to describe parameter group %s: %s", name, err.Error()))
	}
	return true, nil
}

func applyParameterBatches(client rdsiface.RDSAPI, name string) error {
	for _, batch := range [][]*rds.Parameter{hardeningBatch(), replicationBatch()} {
		if len(batch) > parameterBatchMax {
			return fmt.Errorf(fmt.Sprintf("parameter batch of %d exceeds the provider cap of %d", len(batch), parameterBatchMax))
		}
		input := rds.ModifyDBParameterGroupInput{
			DBParameterGroupName: aws.String(name),
			Parameters:           batch,
		}
		if _, err := client.ModifyDBParameterGroup(&input); err != nil {
			return fmt.Errorf(fmt.Sprintf("failed to apply parameter batch to %s: %s", name, err.Error()))
		}
	}
	log.Infof("applied parameter tuning batches to %s", name)
	return nil
}
