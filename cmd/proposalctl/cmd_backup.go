package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/himtika/proposal-tracker/internal/dto"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/service"
)

var (
	exportOwner string
	exportOut   string
	importAs    string
	importCSV   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON backup of the company list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		w := cmd.OutOrStdout()
		if exportOut != "" && exportOut != "-" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create backup file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return runExport(cmd.Context(), svc, w, exportOwner)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore a JSON backup or bulk add companies from CSV",
	Long: `Restore a JSON backup, upserting companies by id and keeping their
outreach status. With --csv the file is read as name,email,phone rows and
every valid row is added as a new company.

Records without an owner are attributed to the account given by --as.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open import file: %w", err)
		}
		defer f.Close()

		return runImport(cmd.Context(), svc, cmd.OutOrStdout(), f, importAs, importCSV)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOwner, "owner", "", "only export companies added by this user id")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")

	importCmd.Flags().StringVar(&importAs, "as", "", "email of the account the import is attributed to")
	importCmd.Flags().BoolVar(&importCSV, "csv", false, "read the file as CSV instead of a JSON backup")
	_ = importCmd.MarkFlagRequired("as")
}

func runExport(ctx context.Context, svc *services, w io.Writer, owner string) error {
	var ownerID *uuid.UUID
	if owner = strings.TrimSpace(owner); owner != "" {
		id, err := uuid.Parse(owner)
		if err != nil {
			return fmt.Errorf("invalid owner id %q", owner)
		}
		ownerID = &id
	}

	backup, err := svc.outreach.ExportBackup(ctx, ownerID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	logger.Info("backup exported", zap.Int("companies", len(backup.Companies)))
	return nil
}

func runImport(ctx context.Context, svc *services, w io.Writer, r io.Reader, asEmail string, csv bool) error {
	user, err := svc.store.Users.FindByEmail(ctx, strings.TrimSpace(asEmail))
	if err != nil {
		return fmt.Errorf("resolve importing account %q: %w", asEmail, err)
	}
	actor := entity.ActorFromUser(user)

	var summary dto.ImportSummary
	if csv {
		summary, err = svc.outreach.ImportCompaniesCSV(ctx, actor, r)
	} else {
		backup, derr := service.DecodeBackup(r)
		if derr != nil {
			return derr
		}
		summary, err = svc.outreach.RestoreBackup(ctx, actor, backup)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "inserted %d, updated %d, skipped %d of %d\n", summary.Inserted, summary.Updated, summary.Skipped, summary.Total)
	for _, msg := range summary.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
	return nil
}
