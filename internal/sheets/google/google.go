package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"horas/internal/core"
	"horas/internal/services"
	ports "horas/internal/sheets"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors imputation rows and the yearly report into a Google
// spreadsheet. Sheet names are year-prefixed ("2024 Imputaciones") so one
// spreadsheet holds the full history.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base names without year; the year prefix is added per call.
	imputationsBase string
	summaryBase     string
}

// Ensure interface conformance
var (
	_ ports.ImputationWriter  = (*Client)(nil)
	_ ports.ImputationDeleter = (*Client)(nil)
	_ ports.SummaryWriter     = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Imputaciones"),
// GOOGLE_SUMMARY_SHEET_NAME (default "Resumen").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	imputationsBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if imputationsBase == "" {
		imputationsBase = "Imputaciones"
	}
	summaryBase := strings.TrimSpace(os.Getenv("GOOGLE_SUMMARY_SHEET_NAME"))
	if summaryBase == "" {
		summaryBase = "Resumen"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		imputationsBase: imputationsBase,
		summaryBase:     summaryBase,
	}, nil
}

// newSheetsService initializes a Sheets Service. Service account
// credentials win; an OAuth client plus a stored token (minted by
// cmd/oauth-init) is the fallback for personal spreadsheets.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return newOAuthSheetsService(ctx)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// newOAuthSheetsService builds the service from an OAuth client config
// and a previously authorized token.
func newOAuthSheetsService(ctx context.Context) (*gsheet.Service, error) {
	clientJSON, err := readCredential("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	if clientJSON == nil {
		return nil, errors.New("missing Google credentials (set service account vars or GOOGLE_OAUTH_CLIENT_JSON/GOOGLE_OAUTH_CLIENT_FILE)")
	}
	tokenJSON, err := readCredential("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if tokenJSON == nil {
		return nil, errors.New("missing OAuth token (run oauth-init, then set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	cfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	service, err := gsheet.NewService(ctx,
		goption.WithTokenSource(cfg.TokenSource(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// readCredential returns the inline JSON env var if set, otherwise the
// contents of the file env var, otherwise nil.
func readCredential(jsonVar, fileVar string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(jsonVar)); v != "" {
		return []byte(v), nil
	}
	if path := strings.TrimSpace(os.Getenv(fileVar)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fileVar, err)
		}
		return b, nil
	}
	return nil, nil
}

func yearPrefixedName(base string, year int) string {
	return fmt.Sprintf("%d %s", year, base)
}

func (c *Client) imputationsSheet(weekID string) (string, error) {
	year, _, err := core.ParseWeekID(weekID)
	if err != nil {
		return "", fmt.Errorf("parse week id: %w", err)
	}
	return yearPrefixedName(c.imputationsBase, year), nil
}

// imputationRow is the A:O cell layout of one mirrored row.
func imputationRow(imp core.Imputation) []any {
	h := imp.Hours
	return []any{
		imp.ID, imp.WeekID, imp.UserID, imp.TaskID, imp.Type,
		h.Mon, h.Tue, h.Wed, h.Thu, h.Fri, h.Sat, h.Sun,
		imp.TotalHours(), imp.Seg, imp.Status,
	}
}

// Append writes the imputation into its year sheet. A row already
// carrying the same id in column A is overwritten in place.
func (c *Client) Append(ctx context.Context, imp core.Imputation) (string, error) {
	if err := imp.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetName, err := c.imputationsSheet(imp.WeekID)
	if err != nil {
		return "", err
	}

	row, err := c.findRowByID(ctx, sheetName, imp.ID)
	if err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A%d:O%d", sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{imputationRow(imp)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}
	return rng, nil
}

// Delete clears the mirrored row of the imputation in every year sheet it
// could live in. Missing rows are not an error: a delete may race a sync
// that never landed.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheets, err := c.listImputationSheets(ctx)
	if err != nil {
		return err
	}
	for _, sheetName := range sheets {
		row, found, err := c.lookupRowByID(ctx, sheetName, id)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		rng := fmt.Sprintf("%s!A%d:O%d", sheetName, row, row)
		_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear %s: %w", rng, err)
		}
	}
	return nil
}

// WriteYearSummary replaces the year's report sheet with the current
// matrix: one header row, the per-type rows, then the derived rows.
func (c *Client) WriteYearSummary(ctx context.Context, summary services.YearSummary) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheetName := yearPrefixedName(c.summaryBase, summary.Year)

	values := [][]any{{
		"", "Ene", "Feb", "Mar", "Abr", "May", "Jun",
		"Jul", "Ago", "Sep", "Oct", "Nov", "Dic", "Total",
	}}
	for _, t := range summary.Types {
		values = append(values, summaryRow(t.Label, t.Months, t.Total))
	}
	for _, d := range summary.Derived {
		values = append(values, summaryRow(d.Name, d.Months, d.Total))
	}

	clearRng := fmt.Sprintf("%s!A1:N%d", sheetName, len(values)+50)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}

	rng := fmt.Sprintf("%s!A1:N%d", sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func summaryRow(name string, months [12]float64, total float64) []any {
	row := make([]any, 0, 14)
	row = append(row, name)
	for _, v := range months {
		row = append(row, v)
	}
	return append(row, total)
}

// findRowByID returns the row holding the id, or the first row after the
// existing data when the id is not mirrored yet.
func (c *Client) findRowByID(ctx context.Context, sheetName, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return len(resp.Values) + 1, nil
}

func (c *Client) lookupRowByID(ctx context.Context, sheetName, id string) (int, bool, error) {
	rng := fmt.Sprintf("%s!A:A", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

// listImputationSheets returns the year sheets of the spreadsheet whose
// title ends with the imputations base name.
func (c *Client) listImputationSheets(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	var out []string
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && strings.HasSuffix(sh.Properties.Title, c.imputationsBase) {
			out = append(out, sh.Properties.Title)
		}
	}
	return out, nil
}
