package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/bikkkubo/pts-stock/internal/logger"
)

// DocsWriter creates the dated report as a Google Document, optionally
// inside a Drive folder. Content is inserted in reverse at index 1 so
// the batchUpdate yields the correct final order.
type DocsWriter struct {
	docs     *docs.Service
	drive    *drive.Service
	folderID string
	log      *slog.Logger
}

// NewDocsWriter builds a writer from a service-account credentials
// file. The caller decides how to degrade when credentials are absent.
func NewDocsWriter(ctx context.Context, credentialsPath, folderID string) (*DocsWriter, error) {
	docsService, err := docs.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(docs.DocumentsScope, drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}

	driveService, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &DocsWriter{
		docs:     docsService,
		drive:    driveService,
		folderID: folderID,
		log:      logger.Get(),
	}, nil
}

// Create writes the report document and returns its URL.
func (w *DocsWriter) Create(ctx context.Context, data Data) (string, error) {
	title := fmt.Sprintf("%s Stock Market Analysis Report", data.Date)

	docID, err := w.createDocument(ctx, title)
	if err != nil {
		return "", err
	}

	requests := buildRequests(data)
	if len(requests) > 0 {
		_, err = w.docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to update document %s: %w", docID, err)
		}
	}

	url := fmt.Sprintf("https://docs.google.com/document/d/%s/edit", docID)
	w.log.Info("created report document", "url", url)
	return url, nil
}

// createDocument creates the doc in the configured folder when one is
// set, otherwise in the Drive root.
func (w *DocsWriter) createDocument(ctx context.Context, title string) (string, error) {
	if w.folderID != "" {
		if _, err := w.drive.Files.Get(w.folderID).Fields("id").Context(ctx).Do(); err != nil {
			return "", fmt.Errorf("drive folder %s not accessible: %w", w.folderID, err)
		}
		file, err := w.drive.Files.Create(&drive.File{
			Name:     title,
			MimeType: "application/vnd.google-apps.document",
			Parents:  []string{w.folderID},
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to create document in folder: %w", err)
		}
		return file.Id, nil
	}

	doc, err := w.docs.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return doc.DocumentId, nil
}

// buildRequests constructs the batchUpdate request list. Content is
// appended in reverse order, each block inserted at index 1, so the
// document reads top-down once all requests run.
func buildRequests(data Data) []*docs.Request {
	var requests []*docs.Request

	add := func(text string, bold bool, heading string) {
		// Docs API ranges count UTF-16 code units.
		length := int64(len(utf16.Encode([]rune(text))))

		requests = append(requests, &docs.Request{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text + "\n",
			},
		})
		if bold && length > 0 {
			requests = append(requests, &docs.Request{
				UpdateTextStyle: &docs.UpdateTextStyleRequest{
					Range:     &docs.Range{StartIndex: 1, EndIndex: 1 + length},
					TextStyle: &docs.TextStyle{Bold: true},
					Fields:    "bold",
				},
			})
		}
		if heading != "" && length > 0 {
			requests = append(requests, &docs.Request{
				UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
					Range:          &docs.Range{StartIndex: 1, EndIndex: 1 + length},
					ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: heading},
					Fields:         "namedStyleType",
				},
			})
		}
	}

	// Sections, reversed, so the first category ends up first.
	for i := len(data.Sections) - 1; i >= 0; i-- {
		section := data.Sections[i]
		if len(section.Reports) == 0 {
			continue
		}

		add("", false, "")

		for j := len(section.Reports) - 1; j >= 0; j-- {
			r := section.Reports[j]
			add("", false, "")

			if len(r.Result.Sources) > 0 {
				add("  Source(s): "+strings.Join(r.Result.Sources, ", "), false, "")
			} else {
				add("  Source(s): N/A", false, "")
			}
			if r.Result.Metrics != "" {
				add("  Metrics: "+r.Result.Metrics, false, "")
			}
			add("  Analysis: "+r.Result.Summary, false, "")

			stopStatus := ""
			if r.Stock.IsStopLimit {
				if r.Stock.ChangePercent > 0 {
					stopStatus = " (Ｓ高)"
				} else {
					stopStatus = " (Ｓ安)"
				}
			}
			add(fmt.Sprintf("%d. %s (%s) - Change: %+.2f%%%s",
				r.Stock.Rank, r.Stock.Name, r.Stock.Code, r.Stock.ChangePercent, stopStatus), false, "")
		}

		add(section.Title, true, "HEADING_2")
	}

	add("", false, "")
	add("Report Date: "+data.Date, false, "")

	if data.StopLimitWarning != "" {
		add("", false, "")
		add(data.StopLimitWarning, true, "HEADING_1")
	}

	return requests
}
