package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opslift/upgctl/rds/awsclient"
	"github.com/opslift/upgctl/rds/config"
	"github.com/opslift/upgctl/rds/controllers/database"
	"github.com/opslift/upgctl/rds/dbs"
	"github.com/opslift/upgctl/rds/services"
)

var (
	awsRegion  string
	awsProfile string
)

var databaseUpgradeCmd = &cobra.Command{
	Use:   "upgrade <instance-id> <target-version> <PREUPGRADE|UPGRADE>",
	Short: "Upgrades an RDS PostgreSQL instance in place",
	Long: `Runs one phase of the in-place engine version upgrade. The PREUPGRADE phase
front-loads the safety work (parameter group, replication slot inspection,
freeze vacuum, snapshot); the UPGRADE phase performs the engine swap and the
post-upgrade refresh. Run logs are shipped and a notification published when
the matching destinations are configured.`,

	Args: cobra.ExactArgs(3),
	Run:  databaseUpgrade,
}

func init() {
	databaseUpgradeCmd.Flags().StringVar(&awsRegion, "region", "eu-west-1", "AWS region of the instance")
	databaseUpgradeCmd.Flags().StringVar(&awsProfile, "profile", "default", "AWS shared credentials profile")
	rdsDatabaseCmd.AddCommand(databaseUpgradeCmd)
}

func databaseUpgrade(cmd *cobra.Command, args []string) {
	req, err := database.NewRequest(args)
	if err != nil {
		log.Fatal(err)
	}

	session, err := awsclient.CreateSession(awsRegion, awsProfile)
	if err != nil {
		log.Fatalf("failed to create AWS session: %s", err.Error())
	}

	access := newAccess(session, config.FromViper())
	if err := database.Run(access, req); err != nil {
		log.Fatal(err)
	}
	log.Infof("phase %s for %s completed", req.Phase, req.InstanceID)
}

func newAccess(session *awsclient.AWSSession, cfg config.Config) database.Access {
	return database.Access{
		RDS:      session.RDS,
		Secrets:  session.Secrets,
		Uploader: session.Uploader,
		SNS:      session.SNS,
		Config:   cfg,
		Waiter:   services.NewStatusWaiter(session.RDS),
		Connect: func(host string, port int64, dbName string, user string, password string) (database.AdminStore, error) {
			return dbs.InitConnection(host, port, dbName, user, password)
		},
	}
}
