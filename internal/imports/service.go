package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"campaign-import/internal/catalog"
	"campaign-import/internal/deploy"
	"campaign-import/internal/records"
	"campaign-import/internal/report"
	"campaign-import/internal/shared/metrics"
	"campaign-import/internal/shared/storage/object"
	"campaign-import/internal/shared/telemetry"
	"campaign-import/internal/submissions"
)

const archiveNamespace = "imports"

// Service runs the validate-then-deploy pipeline.
type Service struct {
	Registry   *catalog.Registry
	Parser     *records.Parser
	Resolver   *submissions.Resolver
	Engine     *deploy.Engine
	Batches    BatchStore
	Aggregator report.Aggregator

	// Archive keeps a copy of uploaded workbooks. Nil disables archiving.
	Archive  object.ObjectStore
	BatchTTL time.Duration
}

// ValidateWorkbook archives and reads an uploaded workbook, then validates it.
func (s *Service) ValidateWorkbook(ctx context.Context, fileName string, r io.Reader, allowed map[catalog.ProductType]bool) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: read upload: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return Batch{}, fmt.Errorf("%w: empty upload", ErrInvalidInput)
	}

	var archiveKey string
	if s.Archive != nil {
		obj, err := s.Archive.Save(ctx, archiveNamespace, fileName, bytes.NewReader(data))
		if err != nil {
			telemetry.Warn("imports.archive_failed", map[string]any{
				"file_name": fileName,
				"error":     err.Error(),
			})
		} else {
			archiveKey = obj.Key
		}
	}

	start := time.Now()
	sheets, err := ReadWorkbook(bytes.NewReader(data))
	metrics.ObserveStage("read", start)
	if err != nil {
		return Batch{}, err
	}

	b, err := s.validate(ctx, sheets, allowed)
	if err != nil {
		return Batch{}, err
	}
	b.FileName = fileName
	b.ArchiveKey = archiveKey
	if err := s.store(ctx, b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

// ValidateSheets routes, parses and resolves raw sheets and stores the
// resulting batch. A nil allowed set admits every product type.
func (s *Service) ValidateSheets(ctx context.Context, raw []records.RawSheet, allowed map[catalog.ProductType]bool) (Batch, error) {
	b, err := s.validate(ctx, raw, allowed)
	if err != nil {
		return Batch{}, err
	}
	if err := s.store(ctx, b); err != nil {
		return Batch{}, err
	}
	return b, nil
}

func (s *Service) store(ctx context.Context, b Batch) error {
	if err := s.Batches.Save(ctx, b, s.BatchTTL); err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	telemetry.Info("imports.validated", map[string]any{
		"batch_id":        b.ID,
		"file_name":       b.FileName,
		"sheets":          len(b.Validation.Sheets),
		"skipped_sheets":  len(b.Validation.SkippedSheets),
		"total_records":   b.Validation.TotalRecords,
		"valid_records":   b.Validation.ValidRecords,
		"invalid_records": b.Validation.InvalidRecords,
	})
	return nil
}

func (s *Service) validate(ctx context.Context, raw []records.RawSheet, allowed map[catalog.ProductType]bool) (Batch, error) {
	routed, skipped := s.route(raw, allowed)

	start := time.Now()
	parsed := make([]records.SheetData, len(routed))
	var g errgroup.Group
	for i, rs := range routed {
		i, rs := i, rs
		g.Go(func() error {
			sd, err := s.Parser.Sheet(rs.sheet.Name, rs.sheet.Rows, rs.productType)
			if err != nil {
				return fmt.Errorf("parse sheet %q: %w", rs.sheet.Name, err)
			}
			parsed[i] = sd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}
	metrics.ObserveStage("parse", start)

	start = time.Now()
	resolved, err := s.Resolver.Resolve(ctx, parsed)
	metrics.ObserveStage("resolve", start)
	if err != nil {
		metrics.IncBatchFailure("resolve")
		return Batch{}, err
	}

	for _, sd := range resolved {
		metrics.ObserveRecords(string(sd.ProductType), sd.ValidCount, sd.InvalidCount)
	}
	vr := s.Aggregator.Validation(resolved, skipped)

	return Batch{
		ID:           uuid.NewString(),
		AllowedTypes: allowedNames(allowed),
		Validation:   vr,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Get returns a stored batch.
func (s *Service) Get(ctx context.Context, id string) (Batch, error) {
	if id == "" {
		return Batch{}, ErrInvalidInput
	}
	return s.Batches.Get(ctx, id)
}

// Deploy commits a stored batch. Redeploying is allowed and converges to the
// same stored state. A batch-level failure returns the partial result and an
// error.
func (s *Service) Deploy(ctx context.Context, id string) (Batch, report.DeployResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Batch{}, report.DeployResult{}, err
	}

	res, deployErr := s.Engine.Deploy(ctx, b.Validation)
	if deployErr != nil {
		return b, res, deployErr
	}

	now := time.Now().UTC()
	b.DeployedAt = &now
	b.LastDeploy = &res
	if err := s.Batches.Save(ctx, b, s.BatchTTL); err != nil {
		telemetry.Warn("imports.batch_update_failed", map[string]any{
			"batch_id": b.ID,
			"error":    err.Error(),
		})
	}
	return b, res, nil
}

type routedSheet struct {
	sheet       records.RawSheet
	productType catalog.ProductType
}

func (s *Service) route(raw []records.RawSheet, allowed map[catalog.ProductType]bool) ([]routedSheet, []report.SkippedSheet) {
	var routed []routedSheet
	var skipped []report.SkippedSheet
	for _, sheet := range raw {
		pt, ok := s.Registry.ResolveProductType(sheet.Name)
		if !ok {
			telemetry.Info("imports.sheet_skipped", map[string]any{
				"sheet":  sheet.Name,
				"reason": report.SkipUnknownSheet,
			})
			metrics.IncSkippedSheet(report.SkipUnknownSheet)
			skipped = append(skipped, report.SkippedSheet{SheetName: sheet.Name, Reason: report.SkipUnknownSheet})
			continue
		}
		if allowed != nil && !allowed[pt] {
			telemetry.Info("imports.sheet_skipped", map[string]any{
				"sheet":        sheet.Name,
				"product_type": string(pt),
				"reason":       report.SkipTypeNotAllowed,
			})
			metrics.IncSkippedSheet(report.SkipTypeNotAllowed)
			skipped = append(skipped, report.SkippedSheet{SheetName: sheet.Name, ProductType: string(pt), Reason: report.SkipTypeNotAllowed})
			continue
		}
		routed = append(routed, routedSheet{sheet: sheet, productType: pt})
	}
	return routed, skipped
}

func allowedNames(allowed map[catalog.ProductType]bool) []string {
	if len(allowed) == 0 {
		return nil
	}
	out := make([]string, 0, len(allowed))
	for pt := range allowed {
		out = append(out, string(pt))
	}
	sort.Strings(out)
	return out
}

// IsBatchFailure reports whether err aborted a stage for the whole batch.
func IsBatchFailure(err error) bool {
	return errors.Is(err, submissions.ErrLookupFailed) || errors.Is(err, deploy.ErrAborted)
}
