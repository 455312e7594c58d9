package cmd

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opslift/upgctl/rds/awsclient"
	"github.com/opslift/upgctl/rds/config"
	"github.com/opslift/upgctl/rds/controllers/database"
	"github.com/opslift/upgctl/rds/persist"
)

var databaseUpgradeFleetCmd = &cobra.Command{
	Use:   "upgrade-fleet",
	Short: "Runs upgrades across a fleet of RDS instances",
	Long: `Reads per-instance blocks from the fleet config file and runs one upgrade
orchestration per instance concurrently. Results are collected per instance
into a master summary; one failing instance never cancels its siblings.`,

	Run: databaseUpgradeFleet,
}

func init() {
	rdsDatabaseCmd.AddCommand(databaseUpgradeFleetCmd)
}

func parallelize(functions []func()) {
	var waitGroup sync.WaitGroup
	waitGroup.Add(len(functions))

	defer waitGroup.Wait()

	for _, function := range functions {
		go func(rdsOperation func()) {
			defer waitGroup.Done()
			rdsOperation()
		}(function)
	}
}

func initViper() func() {
	return func() {
		func() {
			viper.SetConfigName("fleet")
			viper.SetConfigType("json")
			viper.AddConfigPath("./rds/config/")
			err := viper.ReadInConfig()
			if err != nil {
				log.Fatalf("Fatal error config file: %s \n", err)
			}
		}()
	}
}

func getInstancesSet(viperConfig func()) (instancesSet []string) {
	viperConfig()
	instancesAll := []string{"DB1", "DB2", "DB3", "DB4", "DB5", "DB6", "DB7", "DB8"}
	for _, v := range instancesAll {
		if viper.IsSet(v) {
			instancesSet = append(instancesSet, v)
		} else {
			continue
		}
	}
	return instancesSet
}

type fleetResult struct {
	InstanceID string `json:"instance_id"`
	Phase      string `json:"phase"`
	Outcome    string `json:"outcome"`
}

func databaseUpgradeFleet(cmd *cobra.Command, args []string) {

	var (
		functions []func()
		mu        sync.Mutex
		results   []fleetResult
		failures  int
	)
	initViper := initViper()
	instancesSet := getInstancesSet(initViper)
	cfg := config.FromViper()

	for _, m := range instancesSet {

		newViper := viper.Sub(m)
		var (
			instanceID    = newViper.GetString("instanceID")
			targetVersion = newViper.GetString("targetVersion")
			phase         = newViper.GetString("phase")
			region        = newViper.GetString("awsRegion")
			profile       = newViper.GetString("awsProfile")
		)

		req, err := database.NewRequest([]string{instanceID, targetVersion, phase})
		if err != nil {
			log.Fatalf("invalid fleet block %s: %s", m, err.Error())
		}

		session, err := awsclient.CreateSession(region, profile)
		if err != nil {
			log.Fatalf("failed to create AWS session for %s: %s", instanceID, err.Error())
		}

		access := newAccess(session, cfg)

		functions = append(functions, func() {
			outcome := "success"
			if err := database.Run(access, req); err != nil {
				outcome = err.Error()
			}
			mu.Lock()
			results = append(results, fleetResult{
				InstanceID: req.InstanceID,
				Phase:      req.Phase,
				Outcome:    outcome,
			})
			if outcome != "success" {
				failures++
			}
			mu.Unlock()
		})
	}
	parallelize(functions)

	if err := persist.EnsurePath(cfg.LogDir); err != nil {
		log.Fatal(err)
	}
	summaryFile := "fleet-summary-" + time.Now().Format("20060102-150405")
	if err := persist.Save(cfg.LogDir, summaryFile, results); err != nil {
		log.Fatal(err)
	}

	if failures > 0 {
		log.Fatalf("%d of %d fleet upgrades failed, see %s", failures, len(results), summaryFile)
	}
	log.Infof("all %d fleet upgrades completed", len(results))
}
