package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/modelboard-ingest/internal/adapter/postgres"
	"github.com/heartmarshall/modelboard-ingest/internal/app"
	"github.com/heartmarshall/modelboard-ingest/internal/config"
	"github.com/heartmarshall/modelboard-ingest/internal/domain"
	"github.com/heartmarshall/modelboard-ingest/internal/inference"
	"github.com/heartmarshall/modelboard-ingest/internal/mappingparser"
	"github.com/heartmarshall/modelboard-ingest/internal/service/ingest"
)

func newUploadCmd() *cobra.Command {
	var gender string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Inspect a sheet and infer its gender and board category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				in, err := readUpload(args[0], gender)
				if err != nil {
					return nil, "", err
				}
				res, err := s.Ingest.Inspect(cmd.Context(), in)
				if err != nil {
					return nil, "", err
				}
				if res.NeedsGender {
					return res, "select a gender with --gender to continue", nil
				}
				return res, "context inferred", nil
			})
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Gender override (female, male, non_binary)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <filename>",
		Short: "Report whether a file name was already ingested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				res, err := s.Ingest.CheckDuplicate(cmd.Context(), args[0])
				return res, "", err
			})
		},
	}
}

func newPreviewCmd() *cobra.Command {
	var gender string
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Propose a column mapping and render it against the first rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				in, err := readUpload(args[0], gender)
				if err != nil {
					return nil, "", err
				}
				res, err := s.Ingest.Preview(cmd.Context(), ingest.PreviewInput{Upload: in})
				return res, "", err
			})
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Gender override (female, male, non_binary)")
	return cmd
}

func newRegenerateCmd() *cobra.Command {
	var gender, mappingPath, feedback string
	cmd := &cobra.Command{
		Use:   "regenerate <file>",
		Short: "Revise a proposed mapping, optionally guided by feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				in, err := readUpload(args[0], gender)
				if err != nil {
					return nil, "", err
				}
				prev, err := readMapping(mappingPath)
				if err != nil {
					return nil, "", err
				}
				res, err := s.Ingest.Regenerate(cmd.Context(), ingest.RegenerateInput{
					Upload:   in,
					Previous: prev,
					Feedback: feedback,
				})
				return res, "", err
			})
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Gender override (female, male, non_binary)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "Path to the previous mapping JSON (required)")
	cmd.Flags().StringVar(&feedback, "feedback", "", "What to change in the mapping")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}

func newConfirmCmd() *cobra.Command {
	var (
		gender      string
		mappingPath string
		agency      string
		enrich      bool
	)
	cmd := &cobra.Command{
		Use:   "confirm <file>",
		Short: "Apply a mapping to every row and persist the records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var agencyID *uuid.UUID
			if agency != "" {
				id, err := uuid.Parse(agency)
				if err != nil {
					return fail(fmt.Errorf("invalid --agency: %w", err))
				}
				agencyID = &id
			}
			return run(cmd.Context(), func(s *session) (any, string, error) {
				in, err := readUpload(args[0], gender)
				if err != nil {
					return nil, "", err
				}
				m, err := readMapping(mappingPath)
				if err != nil {
					return nil, "", err
				}
				rep, err := s.Ingest.Confirm(cmd.Context(), ingest.ConfirmInput{
					Upload:   in,
					Mapping:  m,
					AgencyID: agencyID,
					Enrich:   enrich,
				})
				if err != nil {
					return rep, "", err
				}
				return rep, fmt.Sprintf("%d inserted, %d existing, %d skipped, %d failed",
					rep.Inserted, rep.Existing, rep.Skipped, rep.Failed), nil
			})
		},
	}
	cmd.Flags().StringVar(&gender, "gender", "", "Gender override (female, male, non_binary)")
	cmd.Flags().StringVar(&mappingPath, "mapping", "", "Path to the mapping JSON (required)")
	cmd.Flags().StringVar(&agency, "agency", "", "Agency UUID to link every record to")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "Queue enrichment for new records with media")
	_ = cmd.MarkFlagRequired("mapping")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every record ingested from a source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				res, err := s.Ingest.DeleteBySource(cmd.Context(), source)
				if err != nil {
					return nil, "", err
				}
				return res, fmt.Sprintf("deleted %d records from %s", res.Models, inference.SourceID(source)), nil
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source id or original file name (required)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newEnrichCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Run recommendation enrichment over a source's records",
		Long: "Run recommendation enrichment over every record of a source that has media.\n" +
			"Interrupting stops before the next record; calls already started finish.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), func(s *session) (any, string, error) {
				if s.Enrichment == nil {
					return nil, "", errors.New("enrichment is disabled, set ENRICHMENT_ENABLED=true")
				}
				rep, err := s.Enrichment.Sweep(cmd.Context(), inference.SourceID(source))
				if rep != nil && rep.Cancelled {
					return rep, fmt.Sprintf("cancelled with %d records remaining", rep.Remaining), nil
				}
				if err != nil {
					return nil, "", err
				}
				return rep, fmt.Sprintf("%d enriched, %d failed", rep.Succeeded, rep.Failed), nil
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Source id or original file name (required)")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fail(err)
			}
			logger := app.NewLogger(cfg.Log, "cli")
			if err := postgres.Migrate(cmd.Context(), cfg.Database.DSN, logger); err != nil {
				return fail(err)
			}
			return writeJSON(envelope{Success: true, Message: "migrations applied"})
		},
	}
}

// readMapping loads a mapping file. Both a bare mapping and a raw model
// reply with fences or prose around the object are accepted.
func readMapping(path string) (domain.Mapping, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Mapping{}, fmt.Errorf("read mapping: %w", err)
	}
	return mappingparser.Extract(string(raw))
}
