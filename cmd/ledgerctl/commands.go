package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"libraryledger/internal/app"
	"libraryledger/internal/auth"
	"libraryledger/internal/clock"
	"libraryledger/internal/config"
	"libraryledger/internal/drill"
	"libraryledger/internal/repository"
	"libraryledger/internal/repository/postgres"
	"libraryledger/pkg/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// errHypothesisViolated makes the drill command exit non-zero.
var errHypothesisViolated = errors.New("drill hypothesis violated")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the library debt and issuance ledger",
		SilenceUsage:  true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newHashPasswordCmd(),
		newOverdueCmd(),
		newSettleCmd(),
		newRatesCmd(),
		newDrillCmd(),
	)
	return root
}

// ledger opens the configured repository and builds the services over it.
func ledger(ctx context.Context) (*app.Services, *zap.SugaredLogger, func(), error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	clk, err := clock.NewSystem(cfg.Ledger.Timezone)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ledger timezone: %w", err)
	}
	repo, err := repository.New(ctx, log, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repo.OnStart(ctx); err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = repo.OnStop(context.Background())
		_ = log.Sync()
	}
	return app.NewServices(cfg, repo, clk, log), log, cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Postgres.MigrateTimeout)
			defer cancel()
			if err := postgres.Migrate(ctx, cfg.Postgres.DSN()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a staff password for auth.staff_password_hash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func newOverdueCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "Recompute fines of overdue issuances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var day time.Time
			if asOf != "" {
				t, err := time.Parse(time.DateOnly, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				day = t
			}
			svc, _, cleanup, err := ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			recs, err := svc.Circulation.ComputeOverdue(cmd.Context(), day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"overdue_books": recs})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD), defaults to today")
	return cmd
}

func newSettleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <member-id>",
		Short: "Settle a member's outstanding debt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid member id %q", args[0])
			}
			svc, _, cleanup, err := ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			receipt, err := svc.Settlement.Settle(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), receipt)
		},
	}
}

func newRatesCmd() *cobra.Command {
	rates := &cobra.Command{
		Use:   "rates",
		Short: "Show or change the fine and rent rates",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, cleanup, err := ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			r, err := svc.Fees.GetRates(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}

	var fine, rent int64
	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the rates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, cleanup, err := ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			r, err := svc.Fees.UpdateRates(cmd.Context(), fine, rent)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	set.Flags().Int64Var(&fine, "fine", 0, "fine per overdue day")
	set.Flags().Int64Var(&rent, "rent", 0, "rent per day held")
	_ = set.MarkFlagRequired("fine")
	_ = set.MarkFlagRequired("rent")

	rates.AddCommand(show, set)
	return rates
}

func newDrillCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Race concurrent issues and returns against the ledger and check its invariants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, log, cleanup, err := ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			engine := drill.NewEngine(log)
			for _, exp := range drill.Builtin(drill.Ledger{
				Circulation: svc.Circulation,
				Members:     svc.Members,
				Fees:        svc.Fees,
				Settlement:  svc.Settlement,
			}, workers) {
				engine.Register(exp)
			}

			results, allHeld := engine.RunAll(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			if !allHeld {
				return errHypothesisViolated
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 8, "concurrent callers per experiment")
	return cmd
}
