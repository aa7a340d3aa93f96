package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/noah-isme/hall-matrix-api/internal/allocation"
)

type planOptions struct {
	Fixture                string
	Output                 string
	ExamDate               string
	Session                string
	SubjectCodes           []string
	RowWidth               int
	MaxDeferrals           int
	FillPolicy             string
	StudentsPerInvigilator int
}

func newPlanOptions() *planOptions {
	return &planOptions{Output: "yaml", FillPolicy: string(allocation.FillSequential)}
}

func (o *planOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Fixture, "fixture", "f", o.Fixture, "YAML file with halls, students and invigilators")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "output format: yaml, json or csv")
	fs.StringVar(&o.ExamDate, "exam-date", o.ExamDate, "exam date (YYYY-MM-DD), overrides the fixture")
	fs.StringVar(&o.Session, "session", o.Session, "session label, overrides the fixture")
	fs.StringSliceVar(&o.SubjectCodes, "subjects", o.SubjectCodes, "subject codes, overrides the fixture")
	fs.IntVar(&o.RowWidth, "row-width", o.RowWidth, "seats per row; 0 derives it from hall capacity")
	fs.IntVar(&o.MaxDeferrals, "max-deferrals", o.MaxDeferrals, "times a student may be skipped before giving up; 0 uses the roster size")
	fs.StringVar(&o.FillPolicy, "fill-policy", o.FillPolicy, "sequential or balanced")
	fs.IntVar(&o.StudentsPerInvigilator, "students-per-invigilator", o.StudentsPerInvigilator, "extra invigilator per this many students; 0 assigns one per hall")
}

func (o *planOptions) Validate() error {
	var err error
	if o.Fixture == "" {
		err = multierr.Append(err, errors.New("--fixture is required"))
	}
	switch o.Output {
	case "yaml", "json", "csv":
	default:
		err = multierr.Append(err, fmt.Errorf("--output must be yaml, json or csv, got %q", o.Output))
	}
	switch allocation.FillPolicy(o.FillPolicy) {
	case allocation.FillSequential, allocation.FillBalanced:
	default:
		err = multierr.Append(err, fmt.Errorf("--fill-policy must be sequential or balanced, got %q", o.FillPolicy))
	}
	if o.RowWidth < 0 || o.MaxDeferrals < 0 || o.StudentsPerInvigilator < 0 {
		err = multierr.Append(err, errors.New("numeric flags must not be negative"))
	}
	return err
}

type tokenOptions struct {
	Secret   string
	Issuer   string
	Audience []string
	UserID   string
	Role     string
	TTL      string
}

func (o *tokenOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Secret, "secret", o.Secret, "HS256 signing secret; defaults to JWT_SECRET")
	fs.StringVar(&o.Issuer, "issuer", o.Issuer, "token issuer; defaults to JWT_ISSUER")
	fs.StringSliceVar(&o.Audience, "audience", o.Audience, "token audience; defaults to JWT_AUDIENCE")
	fs.StringVar(&o.UserID, "user", o.UserID, "user id placed in the token")
	fs.StringVar(&o.Role, "role", o.Role, "SUPERADMIN, ADMIN or STAFF")
	fs.StringVar(&o.TTL, "ttl", o.TTL, "token lifetime")
}
