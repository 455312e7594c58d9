package services

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		Current  string
		Target   string
		Expected UpgradeScope
		NoOp     bool
	}{
		{Current: "14.12", Target: "16.3", Expected: ScopeMajor},
		{Current: "14.12", Target: "15.6", Expected: ScopeMajor},
		{Current: "14.12", Target: "14.15", Expected: ScopeMinor},
		{Current: "9.6", Target: "10.1", Expected: ScopeMajor},
		{Current: "15.6", Target: "15.6", NoOp: true},
		{Current: "15.6", Target: "15.4", NoOp: true},
		{Current: "15.6", Target: "14.12", NoOp: true},
	}

	for i, c := range cases {
		scope, err := Classify(c.Current, c.Target)
		if c.NoOp {
			if !errors.Is(err, ErrNoUpgrade) {
				t.Fatalf("%d, expected ErrNoUpgrade for %s -> %s, got scope %v err %v", i, c.Current, c.Target, scope, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%d, unexpected error, %v", i, err)
		}
		if scope != c.Expected {
			t.Fatalf("%d, expected %v for %s -> %s, got %v", i, c.Expected, c.Current, c.Target, scope)
		}
	}
}

func TestClassifyBadVersion(t *testing.T) {
	if _, err := Classify("fourteen", "15.6"); err == nil {
		t.Fatal("expected error for unparsable current version")
	}
	if _, err := Classify("14.12", "next"); err == nil {
		t.Fatal("expected error for unparsable target version")
	}
}

type mockedDescribeEngineVersions struct {
	rdsiface.RDSAPI
	Resp rds.DescribeDBEngineVersionsOutput
	Err  error
}

func (m mockedDescribeEngineVersions) DescribeDBEngineVersions(in *rds.DescribeDBEngineVersionsInput) (*rds.DescribeDBEngineVersionsOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &m.Resp, nil
}

func TestValidateTarget(t *testing.T) {
	resp := rds.DescribeDBEngineVersionsOutput{
		DBEngineVersions: []*rds.DBEngineVersion{
			{
				ValidUpgradeTarget: []*rds.UpgradeTarget{
					{EngineVersion: aws.String("14.15")},
					{EngineVersion: aws.String("15.6")},
					{EngineVersion: aws.String("16.3")},
				},
			},
		},
	}

	cases := []struct {
		Target    string
		ExpectErr bool
	}{
		{Target: "16.3"},
		{Target: "14.15"},
		{Target: "14.12"}, // same as current, settled by Classify
		{Target: "17.1", ExpectErr: true},
	}

	for i, c := range cases {
		err := ValidateTarget(mockedDescribeEngineVersions{Resp: resp}, "postgres", "14.12", c.Target)
		if c.ExpectErr && err == nil {
			t.Fatalf("%d, expected error for target %s", i, c.Target)
		}
		if !c.ExpectErr && err != nil {
			t.Fatalf("%d, unexpected error for target %s, %v", i, c.Target, err)
		}
	}
}

func TestValidateTargetProviderError(t *testing.T) {
	client := mockedDescribeEngineVersions{Err: errors.New("throttled")}
	if err := ValidateTarget(client, "postgres", "14.12", "16.3"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}
