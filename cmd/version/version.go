package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opslift/upgctl/info"
)

var shortPrint bool

var header = `
                         __   __
 .--.--.-----.-----.----|  |_|  |
 |  |  |  _  |  _  |  __|   _|  |
 |_____|   __|___  |____|____|__|
       |__|  |_____|
`

// BaseCmd represents the base Version command when called without any subcommands
var BaseCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints out the version of upgctl.",
	Long:  `Prints out the version of upgctl.`,
	Run:   printVersion,
}

func init() {
	BaseCmd.PersistentFlags().BoolVarP(&shortPrint, "short", "s", false, "Print just the version number.")
}

func printVersion(cmd *cobra.Command, args []string) {
	if shortPrint {
		fmt.Println(info.Version)

	} else {
		fmt.Println(header)
		fmt.Printf("\nupgctl version:%s commit:%s branch:%s date:%s\n", info.Version, info.GitCommit, info.GitBranch, info.BuildDate)
	}
}
