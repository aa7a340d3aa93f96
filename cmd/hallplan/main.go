package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/hall-matrix-api/internal/allocation"
	"github.com/noah-isme/hall-matrix-api/internal/dto"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	"github.com/noah-isme/hall-matrix-api/internal/service"
	"github.com/noah-isme/hall-matrix-api/pkg/config"
	"github.com/noah-isme/hall-matrix-api/pkg/database"
	appErrors "github.com/noah-isme/hall-matrix-api/pkg/errors"
	"github.com/noah-isme/hall-matrix-api/pkg/export"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hallplan",
		Short:         "Operator tooling for the hall matrix allocation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPlanCommand(), newTokenCommand(), newMigrateCommand())
	return root
}

func newPlanCommand() *cobra.Command {
	opts := newPlanOptions()
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a seating plan from a YAML fixture without touching the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return runPlan(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

type planReport struct {
	ExamDate string                     `json:"exam_date" yaml:"exam_date"`
	Session  string                     `json:"session" yaml:"session"`
	Summary  dto.AllocationSummary      `json:"summary" yaml:"summary"`
	Seats    []models.SeatAssignment    `json:"seats,omitempty" yaml:"seats,omitempty"`
	Unplaced []models.UnplacedStudent   `json:"unplaced,omitempty" yaml:"unplaced,omitempty"`
	Warnings []models.AllocationWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error    string                     `json:"error,omitempty" yaml:"error,omitempty"`
}

// errPlanIncomplete makes the process exit non-zero after the report is printed.
var errPlanIncomplete = errors.New("plan incomplete")

func runPlan(ctx context.Context, opts *planOptions, out, status io.Writer) error {
	fx, err := loadFixture(opts.Fixture)
	if err != nil {
		return err
	}
	req := dto.GenerateAllocationRequest{
		SubjectCodes: dto.CodeList(dto.SplitCodes(fx.SubjectCodes...)),
		ExamDate:     fx.ExamDate,
		Session:      fx.Session,
		DryRun:       true,
	}
	if opts.ExamDate != "" {
		req.ExamDate = opts.ExamDate
	}
	if opts.Session != "" {
		req.Session = opts.Session
	}
	if len(opts.SubjectCodes) > 0 {
		req.SubjectCodes = dto.CodeList(dto.SplitCodes(opts.SubjectCodes...))
	}

	svc := service.NewAllocationService(
		service.NewRosterResolver(fx, nil),
		allocation.NewHallPool(fixtureHalls(fx.Halls)),
		fixtureInvigilators(fx.Invigilators),
		nil,
		nil,
		nil,
		nil,
		nil,
		nil,
		zap.NewNop(),
		service.AllocationServiceConfig{
			Engine: allocation.Options{
				RowWidth:     opts.RowWidth,
				MaxDeferrals: opts.MaxDeferrals,
				FillPolicy:   allocation.FillPolicy(opts.FillPolicy),
			},
			StudentsPerInvigilator: opts.StudentsPerInvigilator,
		},
	)

	report := planReport{ExamDate: req.ExamDate, Session: strings.ToUpper(strings.TrimSpace(req.Session))}
	resp, genErr := svc.Generate(ctx, models.Actor{UserID: "hallplan"}, req)
	if genErr != nil {
		appErr := appErrors.FromError(genErr)
		details, ok := appErr.Details.(dto.AllocationFailureDetails)
		if !ok {
			return genErr
		}
		report.Summary = details.Summary
		report.Unplaced = details.Unplaced
		report.Error = fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
	} else {
		report.Summary = resp.Summary
		report.Seats = resp.Seats
		report.Warnings = resp.Warnings
	}

	if opts.Output == "csv" && resp != nil {
		if err := export.NewCSVExporter().Write(out, export.AllocationSheet(resp.Records)); err != nil {
			return err
		}
	} else if err := writeReport(out, opts.Output, report); err != nil {
		return err
	}

	printStatus(status, report)
	if genErr != nil {
		return fmt.Errorf("%w: %s", errPlanIncomplete, report.Error)
	}
	return nil
}

func printStatus(w io.Writer, report planReport) {
	s := report.Summary
	switch {
	case report.Error != "":
		color.New(color.FgRed, color.Bold).Fprintf(w, "%s\n", report.Error)
	case len(report.Warnings) > 0:
		color.New(color.FgYellow).Fprintf(w, "%d/%d placed in %d halls, %d warnings\n", s.Placed, s.Students, s.HallsUsed, len(report.Warnings))
	default:
		color.New(color.FgGreen).Fprintf(w, "%d/%d placed in %d halls\n", s.Placed, s.Students, s.HallsUsed)
	}
}

func writeReport(out io.Writer, format string, report planReport) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

func newTokenCommand() *cobra.Command {
	opts := &tokenOptions{UserID: "operator", Role: string(models.RoleAdmin), TTL: "1h"}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ttl, err := time.ParseDuration(opts.TTL)
			if err != nil {
				return fmt.Errorf("--ttl: %w", err)
			}
			role := models.UserRole(strings.ToUpper(opts.Role))
			switch role {
			case models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff:
			default:
				return fmt.Errorf("--role must be SUPERADMIN, ADMIN or STAFF, got %q", opts.Role)
			}
			secret, issuer, audience := opts.Secret, opts.Issuer, opts.Audience
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if issuer == "" {
				issuer = os.Getenv("JWT_ISSUER")
			}
			if len(audience) == 0 && os.Getenv("JWT_AUDIENCE") != "" {
				audience = dto.SplitCodes(os.Getenv("JWT_AUDIENCE"))
			}
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}

			auth := service.NewAuthService(nil, service.AuthConfig{Secret: secret, Issuer: issuer, Audience: audience, TTL: ttl})
			token, _, err := auth.IssueToken(opts.UserID, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(ctx, db); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return err
		},
	}
}
