package export

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const timeLayout = "2006-01-02 15:04:05"

var headerRow = []interface{}{
	"login_time", "logout_time", "identity",
	"duration_minutes", "cumulative_login_count", "full_transcript",
}

// SheetsRecorder appends session records to one worksheet of a Google
// spreadsheet addressed by exact title. Authentication uses a service-account
// credential bundle, not the learner's model key.
type SheetsRecorder struct {
	sheets           *sheets.Service
	drive            *drive.Service
	spreadsheetTitle string
	worksheetTitle   string
	loc              *time.Location

	mu            sync.Mutex
	spreadsheetID string
	sheetReady    bool
}

func NewSheetsRecorder(ctx context.Context, credentialsPath, spreadsheetTitle, worksheetTitle string, tzOffsetHours int) (*SheetsRecorder, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheets credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheets credentials: %w", err)
	}
	httpClient := conf.Client(ctx)

	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to init sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to init drive service: %w", err)
	}

	return &SheetsRecorder{
		sheets:           sheetsSvc,
		drive:            driveSvc,
		spreadsheetTitle: spreadsheetTitle,
		worksheetTitle:   worksheetTitle,
		loc:              time.FixedZone(fmt.Sprintf("UTC%+d", tzOffsetHours), tzOffsetHours*3600),
	}, nil
}

func (r *SheetsRecorder) CountLogins(ctx context.Context, identity string) (int, error) {
	id, err := r.ensureSheet(ctx)
	if err != nil {
		return 0, err
	}
	resp, err := r.sheets.Spreadsheets.Values.
		Get(id, fmt.Sprintf("'%s'!C2:C", r.worksheetTitle)).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read identity column: %w", err)
	}
	count := 0
	for _, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == identity {
			count++
		}
	}
	return count, nil
}

func (r *SheetsRecorder) Append(ctx context.Context, rec Record) error {
	id, err := r.ensureSheet(ctx)
	if err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{rowValues(rec, r.loc)}}
	_, err = r.sheets.Spreadsheets.Values.
		Append(id, fmt.Sprintf("'%s'!A1", r.worksheetTitle), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// ensureSheet resolves the spreadsheet by title and lazily creates the
// worksheet with its header row. Results are cached after the first success.
func (r *SheetsRecorder) ensureSheet(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sheetReady {
		return r.spreadsheetID, nil
	}

	if r.spreadsheetID == "" {
		q := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
			strings.ReplaceAll(r.spreadsheetTitle, "'", `\'`))
		list, err := r.drive.Files.List().Q(q).Fields("files(id)").PageSize(1).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to look up spreadsheet: %w", err)
		}
		if len(list.Files) == 0 {
			return "", fmt.Errorf("spreadsheet %q not found", r.spreadsheetTitle)
		}
		r.spreadsheetID = list.Files[0].Id
	}

	ss, err := r.sheets.Spreadsheets.Get(r.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	found := false
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == r.worksheetTitle {
			found = true
			break
		}
	}
	if !found {
		_, err := r.sheets.Spreadsheets.BatchUpdate(r.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: r.worksheetTitle},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to create worksheet %q: %w", r.worksheetTitle, err)
		}
		_, err = r.sheets.Spreadsheets.Values.
			Append(r.spreadsheetID, fmt.Sprintf("'%s'!A1", r.worksheetTitle), &sheets.ValueRange{Values: [][]interface{}{headerRow}}).
			ValueInputOption("RAW").
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to write header row: %w", err)
		}
	}

	r.sheetReady = true
	return r.spreadsheetID, nil
}

// rowValues renders one record as a sheet row, timestamps corrected to the
// fixed export offset.
func rowValues(rec Record, loc *time.Location) []interface{} {
	return []interface{}{
		rec.LoginTime.In(loc).Format(timeLayout),
		rec.LogoutTime.In(loc).Format(timeLayout),
		rec.Identity,
		rec.DurationMinutes,
		rec.LoginCount,
		rec.Transcript,
	}
}
