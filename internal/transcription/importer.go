package transcription

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/revalidate"
)

// Importer runs the whole bulk-load pipeline for one CSV document:
// parse, map, check the interview, load, revalidate.
type Importer struct {
	repo     *Repository
	loader   *Loader
	notifier revalidate.Notifier
	logger   *zap.Logger
}

func NewImporter(gw gateway.Gateway, notifier revalidate.Notifier, logger *zap.Logger) *Importer {
	if notifier == nil {
		notifier = revalidate.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		repo:     NewRepository(gw),
		loader:   NewLoader(gw),
		notifier: notifier,
		logger:   logger,
	}
}

// Import loads csvText into the interview. Parsing and mapping happen before any gateway
// call, so a malformed or header-only document never touches the store.
func (im *Importer) Import(ctx context.Context, interviewID int64, csvText string) (ImportSummary, error) {
	batch := uuid.NewString()
	log := im.logger.With(zap.String("batch_id", batch), zap.Int64("interview_id", interviewID))

	rows, err := ParseCSV(csvText)
	if err != nil {
		log.Info("transcription rejected", zap.Error(err))
		return ImportSummary{}, err
	}
	segs, err := MapRows(rows)
	if err != nil {
		log.Info("transcription rejected", zap.Error(err))
		return ImportSummary{}, err
	}
	if len(segs) == 0 {
		return ImportSummary{}, apperr.New(apperr.KindEmptyInput, "the CSV has no data rows")
	}

	if err := im.repo.RequireInterview(ctx, interviewID); err != nil {
		return ImportSummary{}, err
	}
	n, err := im.loader.Load(ctx, interviewID, segs)
	if err != nil {
		log.Error("transcription load failed", zap.Int("rows", len(segs)), zap.Error(err))
		return ImportSummary{}, err
	}

	im.notifier.Revalidate(ctx, InterviewPaths(interviewID)...)
	summary := ImportSummary{
		InterviewID:  interviewID,
		Count:        n,
		BatchID:      batch,
		UnknownRoles: unknownRoles(segs),
	}
	log.Info("transcription imported", zap.Int("count", n), zap.Strings("unknown_roles", summary.UnknownRoles))
	return summary, nil
}

// InterviewPaths are the read paths whose results change with the interview's segments.
func InterviewPaths(interviewID int64) []string {
	return []string{"/interviews", fmt.Sprintf("/interviews/%d", interviewID)}
}

func unknownRoles(segs []Segment) []string {
	seen := map[string]bool{}
	for _, s := range segs {
		if !knownRole(s.Role) {
			seen[s.Role] = true
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
