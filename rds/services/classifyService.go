package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

// UpgradeScope classifies a version transition as minor or major. It is
// derived once per run and never recomputed mid flight.
type UpgradeScope int

const (
	ScopeMinor UpgradeScope = iota
	ScopeMajor
)

func (s UpgradeScope) String() string {
	if s == ScopeMajor {
		return "MAJOR"
	}
	return "MINOR"
}

// ErrNoUpgrade signals that the requested version is the same as or older
// than the running one. The run ends successfully without touching the
// instance.
var ErrNoUpgrade = errors.New("target version is not newer than the current version, nothing to do")

// VersionFamily returns the major component of a dotted version string.
func VersionFamily(version string) (int, error) {
	head := strings.SplitN(version, ".", 2)[0]
	family, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf(fmt.Sprintf("failed to parse version family from %s: %s", version, err.Error()))
	}
	return family, nil
}

// versionOrdinal strips the dots and treats the remainder as one integer.
// Works for the two-segment X.Y scheme RDS Postgres uses; not a general
// semantic version comparison.
func versionOrdinal(version string) (int, error) {
	ordinal, err := strconv.Atoi(strings.ReplaceAll(version, ".", ""))
	if err != nil {
		return 0, fmt.Errorf(fmt.Sprintf("failed to parse version %s: %s", version, err.Error()))
	}
	return ordinal, nil
}

// Classify derives the upgrade scope from the current and the requested
// version. Same or older targets return ErrNoUpgrade.
func Classify(current string, target string) (UpgradeScope, error) {
	currentFamily, err := VersionFamily(current)
	if err != nil {
		return 0, err
	}
	targetFamily, err := VersionFamily(target)
	if err != nil {
		return 0, err
	}
	if targetFamily > currentFamily {
		return ScopeMajor, nil
	}
	if targetFamily < currentFamily {
		return 0, ErrNoUpgrade
	}
	currentOrdinal, err := versionOrdinal(current)
	if err != nil {
		return 0, err
	}
	targetOrdinal, err := versionOrdinal(target)
	if err != nil {
		return 0, err
	}
	if targetOrdinal <= currentOrdinal {
		return 0, ErrNoUpgrade
	}
	return ScopeMinor, nil
}

// ValidateTarget checks the requested version against the upgrade targets
// the provider advertises for the instance's current engine version. A
// target equal to the current version passes here; Classify settles it as
// a no-op.
func ValidateTarget(client rdsiface.RDSAPI, engine string, current string, target string) error {
	if target == current {
		return nil
	}
	input := rds.DescribeDBEngineVersionsInput{
		Engine:        aws.String(engine),
		EngineVersion: aws.String(current),
	}
	out, err := client.DescribeDBEngineVersions(&input)
	if err != nil {
		return fmt.Errorf(fmt.Sprintf("failed to describe engine versions: %s", err.Error()))
	}
	if len(out.DBEngineVersions) == 0 {
		return fmt.Errorf(fmt.Sprintf("engine version %s is unknown to the provider", current))
	}
	for _, upgradeTarget := range out.DBEngineVersions[0].ValidUpgradeTarget {
		if aws.StringValue(upgradeTarget.EngineVersion) == target {
			return nil
		}
	}
	return fmt.Errorf(fmt.Sprintf("version %s is not a valid upgrade target for %s %s", target, engine, current))
}
