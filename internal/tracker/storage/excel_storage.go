package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/pkg/logger"

	"github.com/xuri/excelize/v2"
)

const (
	statsSheet    = "recommender_stats"
	rawTextsSheet = "raw_texts"
)

var recommendationColumns = []string{
	"recommender", "stock_name", "market", "code",
	"open_price", "close_price", "pct_change", "status", "fail_reason", "raw_text",
	"extracted_name",
}

var statsColumns = []string{
	"name", "sample_count", "win_count", "win_rate", "avg_return",
	"composite_score", "rating", "weekly_returns_json",
}

// excelStorage persists everything in a single xlsx workbook: one sheet per
// week, one recommender_stats sheet, one raw_texts sheet. Every write batch
// rewrites the affected sheets and saves the whole workbook; the file is the
// single source of truth between runs. Single-writer only.
type excelStorage struct {
	path   string
	logger *logger.Logger
	mu     sync.Mutex
}

// NewExcelStorage creates the workbook-backed storage, initializing the file
// and its fixed sheets when missing.
func NewExcelStorage(path string, log *logger.Logger) (Storage, error) {
	s := &excelStorage{path: path, logger: log}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		f := excelize.NewFile()
		defer f.Close()
		if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
			return nil, err
		}
		writeHeader(f, statsSheet, statsColumns)
		if _, err := f.NewSheet(rawTextsSheet); err != nil {
			return nil, err
		}
		writeHeader(f, rawTextsSheet, []string{"week_id", "raw_text"})
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("failed to initialize workbook: %w", err)
		}
	}
	return s, nil
}

func writeHeader(f *excelize.File, sheet string, cols []string) {
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
}

func (s *excelStorage) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}
	return f, nil
}

func (s *excelStorage) Upsert(ctx context.Context, rec *entity.Recommendation, force bool) (*entity.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := s.readWeekSheet(f, rec.WeekID)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range recs {
		if !sameIdentity(&recs[i], rec) {
			continue
		}
		if upsertConflicts(&recs[i], rec) && !force {
			return nil, fmt.Errorf("%w: %s is %s", entity.ErrConflict, recs[i].IdentityKey(), recs[i].Status)
		}
		rec.ID = recs[i].ID
		recs[i] = *rec
		replaced = true
		break
	}
	if !replaced {
		rec.ID = uint(len(recs) + 1)
		recs = append(recs, *rec)
	}

	if err := s.writeWeekSheet(f, rec.WeekID, recs); err != nil {
		return nil, err
	}
	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	stored := *rec
	return &stored, nil
}

func (s *excelStorage) Query(ctx context.Context, filter Filter) ([]entity.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	weekIDs := []string{filter.WeekID}
	if filter.WeekID == "" {
		weekIDs = weekSheets(f)
	}

	var out []entity.Recommendation
	for _, weekID := range weekIDs {
		recs, err := s.readWeekSheet(f, weekID)
		if err != nil {
			return nil, err
		}
		for i := range recs {
			if filter.Matches(&recs[i]) {
				out = append(out, recs[i])
			}
		}
	}
	return out, nil
}

func (s *excelStorage) BulkUpdate(ctx context.Context, recs []entity.Recommendation) (*BulkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := &BulkResult{}

	// Group by week so each sheet is rewritten once.
	byWeek := map[string][]entity.Recommendation{}
	for _, rec := range recs {
		byWeek[rec.WeekID] = append(byWeek[rec.WeekID], rec)
	}

	for weekID, batch := range byWeek {
		existing, err := s.readWeekSheet(f, weekID)
		if err != nil {
			for _, rec := range batch {
				result.Errors = append(result.Errors, BulkError{Key: rec.IdentityKey(), Err: err})
			}
			continue
		}
		for _, rec := range batch {
			found := false
			// Identity match first: row IDs are positions and shift when
			// records are deleted between a read and this write.
			for i := range existing {
				if sameIdentity(&existing[i], &rec) {
					rec.ID = existing[i].ID
					existing[i] = rec
					found = true
					break
				}
			}
			if !found {
				for i := range existing {
					if existing[i].ID == rec.ID {
						rec.ID = existing[i].ID
						existing[i] = rec
						found = true
						break
					}
				}
			}
			if !found {
				result.Errors = append(result.Errors, BulkError{
					Key: rec.IdentityKey(),
					Err: fmt.Errorf("record not found in week %s", weekID),
				})
				continue
			}
			result.Updated++
		}
		if err := s.writeWeekSheet(f, weekID, existing); err != nil {
			return nil, err
		}
	}

	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	if len(result.Errors) > 0 {
		s.logger.Warn("Bulk update completed with record errors",
			logger.IntField("updated", result.Updated),
			logger.IntField("errors", len(result.Errors)))
	}
	return result, nil
}

func (s *excelStorage) DeleteRecords(ctx context.Context, weekID string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := s.readWeekSheet(f, weekID)
	if err != nil {
		return err
	}

	drop := make(map[uint]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept []entity.Recommendation
	for i := range recs {
		if !drop[recs[i].ID] {
			kept = append(kept, recs[i])
		}
	}
	if len(kept) == len(recs) {
		return nil
	}

	if err := s.writeWeekSheet(f, weekID, kept); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (s *excelStorage) SaveRawText(ctx context.Context, weekID, rawText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(rawTextsSheet)
	if err != nil {
		return err
	}
	target := len(rows) + 1
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 && row[0] == weekID {
			target = i + 1
			break
		}
	}
	cellWeek, _ := excelize.CoordinatesToCellName(1, target)
	cellText, _ := excelize.CoordinatesToCellName(2, target)
	if err := f.SetCellValue(rawTextsSheet, cellWeek, weekID); err != nil {
		return err
	}
	if err := f.SetCellValue(rawTextsSheet, cellText, rawText); err != nil {
		return err
	}
	return f.Save()
}

func (s *excelStorage) GetRawText(ctx context.Context, weekID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	rows, err := f.GetRows(rawTextsSheet)
	if err != nil {
		return "", err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if row[0] == weekID {
			if len(row) > 1 {
				return row[1], nil
			}
			return "", nil
		}
	}
	return "", nil
}

func (s *excelStorage) ListWeeks(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	weeks := weekSheets(f)
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))
	return weeks, nil
}

func (s *excelStorage) DeleteWeek(ctx context.Context, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.DeleteSheet(weekID); err != nil {
		return err
	}

	rows, err := f.GetRows(rawTextsSheet)
	if err != nil {
		return err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if row[0] == weekID {
			if err := f.RemoveRow(rawTextsSheet, i+1); err != nil {
				return err
			}
			break
		}
	}
	return f.Save()
}

func (s *excelStorage) SaveRecommenderStats(ctx context.Context, stats []entity.RecommenderStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.DeleteSheet(statsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(statsSheet); err != nil {
		return err
	}
	writeHeader(f, statsSheet, statsColumns)

	for i, stat := range stats {
		row := i + 2
		values := []interface{}{
			stat.Name, stat.SampleCount, stat.WinCount, stat.WinRate,
			stat.AvgReturn, stat.CompositeScore, stat.Rating, string(stat.WeeklyReturns),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(statsSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Save()
}

func (s *excelStorage) GetRecommenderStats(ctx context.Context) ([]entity.RecommenderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(statsSheet)
	if err != nil {
		return nil, err
	}

	var stats []entity.RecommenderStats
	for i, row := range rows {
		if i == 0 || len(row) == 0 || row[0] == "" {
			continue
		}
		stat := entity.RecommenderStats{ID: uint(i), Name: row[0]}
		stat.SampleCount = parseInt(cellAt(row, 1))
		stat.WinCount = parseInt(cellAt(row, 2))
		stat.WinRate = parseFloat(cellAt(row, 3))
		stat.AvgReturn = parseFloat(cellAt(row, 4))
		stat.CompositeScore = parseFloat(cellAt(row, 5))
		stat.Rating = cellAt(row, 6)
		if raw := cellAt(row, 7); raw != "" {
			stat.WeeklyReturns = []byte(raw)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// readWeekSheet loads a week sheet into records. The 1-based data row index
// doubles as the backend-assigned ID.
func (s *excelStorage) readWeekSheet(f *excelize.File, weekID string) ([]entity.Recommendation, error) {
	if !sheetExists(f, weekID) {
		return nil, nil
	}
	rows, err := f.GetRows(weekID)
	if err != nil {
		return nil, err
	}

	var recs []entity.Recommendation
	for i, row := range rows {
		if i == 0 || len(row) == 0 || cellAt(row, 0) == "" {
			continue
		}
		rec := entity.Recommendation{
			ID:            uint(len(recs) + 1),
			WeekID:        weekID,
			Recommender:   cellAt(row, 0),
			StockName:     cellAt(row, 1),
			Market:        cellAt(row, 2),
			Code:          cellAt(row, 3),
			OpenPrice:     parseFloatPtr(cellAt(row, 4)),
			ClosePrice:    parseFloatPtr(cellAt(row, 5)),
			PctChange:     parseFloatPtr(cellAt(row, 6)),
			Status:        entity.Status(cellAt(row, 7)),
			FailReason:    cellAt(row, 8),
			RawText:       cellAt(row, 9),
			ExtractedName: cellAt(row, 10),
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// writeWeekSheet rewrites a week sheet wholesale in record order.
func (s *excelStorage) writeWeekSheet(f *excelize.File, weekID string, recs []entity.Recommendation) error {
	if sheetExists(f, weekID) {
		if err := f.DeleteSheet(weekID); err != nil {
			return err
		}
	}
	if _, err := f.NewSheet(weekID); err != nil {
		return err
	}
	writeHeader(f, weekID, recommendationColumns)

	for i := range recs {
		rec := &recs[i]
		row := i + 2
		values := []interface{}{
			rec.Recommender, rec.StockName, rec.Market, rec.Code,
			floatOrEmpty(rec.OpenPrice), floatOrEmpty(rec.ClosePrice), floatOrEmpty(rec.PctChange),
			string(rec.Status), rec.FailReason, rec.RawText,
			rec.ExtractedName,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(weekID, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func sameIdentity(a, b *entity.Recommendation) bool {
	if a.WeekID != b.WeekID || a.Recommender != b.Recommender {
		return false
	}
	if a.Resolved() && b.Resolved() {
		return a.Market == b.Market && a.Code == b.Code
	}
	return nameMatches(a, b)
}

// nameMatches compares display names, also accepting the originally
// extracted spelling of either side. A renamed record still matches a
// re-ingested pair carrying the pre-correction name.
func nameMatches(a, b *entity.Recommendation) bool {
	if a.StockName == b.StockName {
		return true
	}
	if a.ExtractedName != "" && a.ExtractedName == b.StockName {
		return true
	}
	return b.ExtractedName != "" && b.ExtractedName == a.StockName
}

func sheetExists(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

func weekSheets(f *excelize.File) []string {
	var weeks []string
	for _, name := range f.GetSheetList() {
		if name == statsSheet || name == rawTextsSheet {
			continue
		}
		if _, err := entity.ParseWeekID(name); err == nil {
			weeks = append(weeks, name)
		}
	}
	return weeks
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func floatOrEmpty(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
