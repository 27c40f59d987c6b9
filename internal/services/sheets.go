package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

const defaultSheetTab = "Candidates"

// valuesWriter is the part of the Sheets API the exporter needs.
type valuesWriter interface {
	ClearValues(ctx context.Context, spreadsheetID, rangeA1 string) error
	UpdateValues(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error
}

// SheetsExporter writes a ranked batch into a spreadsheet tab using the same
// layout as the CSV export.
type SheetsExporter struct {
	writer     valuesWriter
	dateLayout string
	now        func() time.Time
	logger     *zap.Logger
}

func NewSheetsExporter(writer valuesWriter, dateLayout string, log *zap.Logger) *SheetsExporter {
	return &SheetsExporter{
		writer:     writer,
		dateLayout: dateLayout,
		now:        time.Now,
		logger:     logger.OrNop(log),
	}
}

// Export replaces the content of tab with the batch table.
func (e *SheetsExporter) Export(ctx context.Context, spreadsheetID, tab string, batch *models.EvaluationBatch) (*models.SheetsExportResponse, error) {
	tab = strings.TrimSpace(tab)
	if tab == "" {
		tab = defaultSheetTab
	}

	table, err := BuildExportTable(batch.JobDescription, Rank(batch.Candidates), e.now(), e.dateLayout)
	if err != nil {
		return nil, err
	}

	sheetRange := quoteSheetName(tab)
	if err := e.writer.ClearValues(ctx, spreadsheetID, sheetRange); err != nil {
		return nil, fmt.Errorf("failed to clear sheet %s: %w", tab, err)
	}

	values := table.Values()
	if err := e.writer.UpdateValues(ctx, spreadsheetID, sheetRange+"!A1", values); err != nil {
		return nil, fmt.Errorf("failed to write sheet %s: %w", tab, err)
	}

	e.logger.Info("sheet export written",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("tab", tab),
		zap.Int("rows", len(values)),
	)

	return &models.SheetsExportResponse{
		SpreadsheetID: spreadsheetID,
		Tab:           tab,
		RowsWritten:   len(values),
	}, nil
}

func quoteSheetName(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// SheetsClient wraps the Sheets values API.
type SheetsClient struct {
	service *sheets.Service
}

func NewSheetsClient(ctx context.Context, credentialsPath string) (*SheetsClient, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("sheets: credentials path is required")
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &SheetsClient{service: service}, nil
}

func (c *SheetsClient) UpdateValues(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error {
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, rangeA1, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}

func (c *SheetsClient) ClearValues(ctx context.Context, spreadsheetID, rangeA1 string) error {
	_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, rangeA1, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
