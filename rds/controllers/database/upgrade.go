package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	log "github.com/sirupsen/logrus"

	"github.com/opslift/upgctl/rds/config"
	"github.com/opslift/upgctl/rds/persist"
	"github.com/opslift/upgctl/rds/services"
)

const (
	PhasePreUpgrade = "PREUPGRADE"
	PhaseUpgrade    = "UPGRADE"
)

// Request is one validated upgrade order for a single instance. Immutable
// once built.
type Request struct {
	InstanceID    string
	TargetVersion string
	Phase         string
}

// AdminStore is the administrative database surface one run needs.
type AdminStore interface {
	services.SlotStore
	services.ExtensionStore
	services.MaintenanceStore
	Close() error
}

// Access bundles every collaborator for one upgrade run. The Connect
// function opens an administrative connection to the instance endpoint;
// credentials are resolved fresh for every call.
type Access struct {
	RDS      rdsiface.RDSAPI
	Secrets  secretsmanageriface.SecretsManagerAPI
	Uploader s3manageriface.UploaderAPI
	SNS      snsiface.SNSAPI
	Config   config.Config
	Waiter   services.StatusWaiter
	Connect  func(host string, port int64, dbName string, user string, password string) (AdminStore, error)
}

// NewRequest validates the three positional arguments: instance id,
// target version and phase. Phase is case-insensitive.
func NewRequest(args []string) (Request, error) {
	if len(args) != 3 {
		return Request{}, fmt.Errorf("usage: upgctl rds database upgrade <instance-id> <target-version> <PREUPGRADE|UPGRADE>")
	}
	phase := strings.ToUpper(args[2])
	if phase != PhasePreUpgrade && phase != PhaseUpgrade {
		return Request{}, fmt.Errorf(fmt.Sprintf("unknown phase %s, want PREUPGRADE or UPGRADE", args[2]))
	}
	return Request{
		InstanceID:    args[0],
		TargetVersion: args[1],
		Phase:         phase,
	}, nil
}

// Run drives one upgrade phase end to end. Log shipping and notification
// always execute, whether the run failed or not, so an aborted run still
// leaves its records in the durable sink.
func Run(a Access, req Request) error {
	runStamp := time.Now().Format("20060102-150405")
	logDir := filepath.Join(a.Config.LogDir, req.InstanceID)
	if err := persist.EnsurePath(logDir); err != nil {
		return err
	}

	runErr := run(a, req, logDir, runStamp)

	outcome := "success"
	if errors.Is(runErr, services.ErrNoUpgrade) {
		log.Infof("nothing to do for %s: %s", req.InstanceID, runErr.Error())
		outcome = "no-op, " + runErr.Error()
		runErr = nil
	} else if runErr != nil {
		log.Errorf("run for %s failed: %s", req.InstanceID, runErr.Error())
		outcome = "failed, " + runErr.Error()
	}

	if err := services.ShipLogs(a.Uploader, a.Config.LogBucket, logDir, req.InstanceID); err != nil {
		log.Error(err)
		if runErr == nil {
			runErr = err
		}
	}
	if err := services.Notify(a.SNS, a.Config.TopicARN, req.InstanceID, req.Phase, outcome); err != nil {
		log.Error(err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func run(a Access, req Request, logDir string, runStamp string) error {
	instance, err := services.DescribeInstance(a.RDS, req.InstanceID)
	if err != nil {
		return err
	}
	if status := aws.StringValue(instance.DBInstanceStatus); status != services.StatusAvailable {
		return fmt.Errorf(fmt.Sprintf("instance %s is %s, must be available before an upgrade run", req.InstanceID, status))
	}

	engine := aws.StringValue(instance.Engine)
	current := aws.StringValue(instance.EngineVersion)

	// the no-op check comes first: a same-or-older target exits clean even
	// when the provider would not list it as an upgrade target
	scope, err := services.Classify(current, req.TargetVersion)
	if err != nil {
		return err
	}
	if err := services.ValidateTarget(a.RDS, engine, current, req.TargetVersion); err != nil {
		return err
	}
	log.Infof("upgrade of %s from %s to %s classified as %s", req.InstanceID, current, req.TargetVersion, scope)

	switch req.Phase {
	case PhasePreUpgrade:
		return preUpgrade(a, req, instance, scope, logDir, runStamp)
	case PhaseUpgrade:
		return upgrade(a, req, instance, scope, logDir, runStamp)
	}
	return fmt.Errorf(fmt.Sprintf("unknown phase %s", req.Phase))
}

// preUpgrade front-loads everything that does not need the engine swap:
// parameter group and slot inspection for major upgrades, then the freeze
// vacuum and the safety snapshot. No version change happens here.
func preUpgrade(a Access, req Request, instance *rds.DBInstance, scope services.UpgradeScope, logDir string, runStamp string) error {
	if scope == services.ScopeMajor {
		family, err := services.VersionFamily(req.TargetVersion)
		if err != nil {
			return err
		}
		engine := aws.StringValue(instance.Engine)
		if _, err := services.EnsureParameterGroup(a.RDS, engine, family, req.InstanceID, a.Config.TuneParameters); err != nil {
			return err
		}

		store, err := connectAdmin(a, instance)
		if err != nil {
			return err
		}
		remaining, err := services.GuardReplicationSlots(store, logDir, runStamp, a.Config.DropSlots)
		store.Close()
		if err != nil {
			return err
		}
		if remaining > 0 {
			log.Warnf("%d replication slot(s) remain; the upgrade phase will not proceed until they are gone", remaining)
		}
	}

	store, err := connectAdmin(a, instance)
	if err != nil {
		return err
	}
	err = services.FreezeTuples(store, logDir, runStamp)
	store.Close()
	if err != nil {
		return err
	}

	if !a.Config.SkipSnapshot {
		if _, err := services.TakeSnapshot(a.RDS, req.InstanceID, runStamp, a.Waiter); err != nil {
			return err
		}
	}
	return nil
}

// upgrade performs the engine swap: per-scope preparation, log export,
// pending maintenance, the version change itself and the post-upgrade
// refresh.
func upgrade(a Access, req Request, instance *rds.DBInstance, scope services.UpgradeScope, logDir string, runStamp string) error {
	parameterGroup := currentParameterGroup(instance)

	if scope == services.ScopeMajor {
		family, err := services.VersionFamily(req.TargetVersion)
		if err != nil {
			return err
		}
		engine := aws.StringValue(instance.Engine)
		name, err := services.EnsureParameterGroup(a.RDS, engine, family, req.InstanceID, a.Config.TuneParameters)
		if err != nil {
			return err
		}
		parameterGroup = name

		store, err := connectAdmin(a, instance)
		if err != nil {
			return err
		}
		remaining, err := services.GuardReplicationSlots(store, logDir, runStamp, a.Config.DropSlots)
		store.Close()
		if err != nil {
			return err
		}
		if remaining > 0 {
			return fmt.Errorf(fmt.Sprintf("%d replication slot(s) present, the major upgrade cannot proceed", remaining))
		}
	} else if !a.Config.SkipSnapshot {
		if _, err := services.TakeSnapshot(a.RDS, req.InstanceID, runStamp, a.Waiter); err != nil {
			return err
		}
	}

	if err := services.EnableLogExports(a.RDS, req.InstanceID, a.Waiter); err != nil {
		return err
	}
	if err := services.ApplyPendingMaintenance(a.RDS, req.InstanceID, aws.StringValue(instance.DBInstanceArn), a.Waiter); err != nil {
		return err
	}
	if err := services.ExecuteUpgrade(a.RDS, req.InstanceID, req.TargetVersion, parameterGroup, logDir, runStamp, a.Waiter); err != nil {
		return err
	}

	store, err := connectAdmin(a, instance)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := services.RefreshExtensions(store, logDir, runStamp); err != nil {
		return err
	}
	return services.RebuildStatistics(store)
}

func connectAdmin(a Access, instance *rds.DBInstance) (AdminStore, error) {
	creds, err := services.ResolveCredentials(a.RDS, a.Secrets, aws.StringValue(instance.DBInstanceArn), a.Config.SecretTagKey)
	if err != nil {
		return nil, err
	}
	if instance.Endpoint == nil {
		return nil, fmt.Errorf(fmt.Sprintf("instance %s has no endpoint", aws.StringValue(instance.DBInstanceIdentifier)))
	}
	dbName := aws.StringValue(instance.DBName)
	if dbName == "" {
		dbName = "postgres"
	}
	return a.Connect(
		aws.StringValue(instance.Endpoint.Address),
		aws.Int64Value(instance.Endpoint.Port),
		dbName,
		creds.Username,
		creds.Password,
	)
}

func currentParameterGroup(instance *rds.DBInstance) string {
	if len(instance.DBParameterGroups) == 0 {
		return ""
	}
	return aws.StringValue(instance.DBParameterGroups[0].DBParameterGroupName)
}
