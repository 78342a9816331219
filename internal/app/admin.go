package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/okian/dawgbowl/internal/adapters/export"
	"github.com/okian/dawgbowl/internal/adapters/store"
	"github.com/okian/dawgbowl/internal/domain/model"
	"github.com/okian/dawgbowl/pkg/logger"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// AdminEntry is a stored lineup with its captain's name resolved.
type AdminEntry struct {
	model.SubmittedLineup
	CaptainName string `json:"captain_name"`
}

// AdminListing is every stored lineup plus the records that failed to load.
type AdminListing struct {
	Lineups []AdminEntry          `json:"lineups"`
	Corrupt []store.CorruptRecord `json:"corrupt,omitempty"`
}

// Lineups lists all stored lineups, oldest entry first.
func (s *Service) Lineups(ctx context.Context) (AdminListing, error) {
	listing, err := s.lineups.ListAll(ctx)
	if err != nil {
		return AdminListing{}, fmt.Errorf("list lineups: %w", err)
	}
	out := AdminListing{
		Lineups: make([]AdminEntry, len(listing.Lineups)),
		Corrupt: listing.Corrupt,
	}
	for i, l := range listing.Lineups {
		out.Lineups[i] = AdminEntry{SubmittedLineup: l}
		if c, ok := l.Captain(); ok {
			out.Lineups[i].CaptainName = c.Contestant.Name
		}
	}
	return out, nil
}

// DeleteLineup removes a user's lineup and drops it from the standings.
func (s *Service) DeleteLineup(ctx context.Context, username string) error {
	key, err := model.NormalizeUsername(username)
	if err != nil {
		return err
	}
	if err := s.lineups.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete lineup %s: %w", key, err)
	}
	if s.running() == nil {
		s.board.Remove(ctx, key)
	}
	s.logger.Info(ctx, "lineup deleted", logger.String("key", key))
	return nil
}

// ExportFile is a rendered export ready to download.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export renders every stored lineup as CSV or XLSX.
func (s *Service) Export(ctx context.Context, format string) (ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}

	var (
		write       func(*bytes.Buffer, []model.SubmittedLineup) error
		contentType string
	)
	switch format {
	case FormatCSV:
		write = func(b *bytes.Buffer, l []model.SubmittedLineup) error { return export.WriteCSV(b, l) }
		contentType = "text/csv; charset=utf-8"
	case FormatXLSX:
		write = func(b *bytes.Buffer, l []model.SubmittedLineup) error { return export.WriteXLSX(b, l) }
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return ExportFile{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	listing, err := s.lineups.ListAll(ctx)
	if err != nil {
		return ExportFile{}, fmt.Errorf("list lineups: %w", err)
	}
	if len(listing.Lineups) == 0 {
		return ExportFile{}, ErrNoLineups
	}

	var buf bytes.Buffer
	if err := write(&buf, listing.Lineups); err != nil {
		return ExportFile{}, err
	}
	return ExportFile{
		Name:        export.Filename(s.now(), format),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}
