package export

import (
	"context"
	"fmt"
	"html"
	"os/exec"
	"strings"
	"time"
	"unicode"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// printJob is one rendered transcript headed for the printer.
type printJob struct {
	HTML        string
	Title       string
	InterviewID string
}

var chromeBinaries = []string{"chromium-browser", "chromium", "google-chrome", "headless-shell"}

const maxFilenameRunes = 60

func findChrome() (string, error) {
	for _, name := range chromeBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no chrome binary in PATH (tried %s)", ErrPDFDependencyMissing, strings.Join(chromeBinaries, ", "))
}

// exportPDF prints the transcript with headless Chrome. Each page carries the
// interview title and a page counter, since printed transcripts get split up
// and passed around.
func exportPDF(parent context.Context, job printJob) (*Result, error) {
	execPath, err := findChrome()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(parent, 45*time.Second)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdfData []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, job.HTML).Do(ctx)
		}),
		chromedp.WaitReady("body > h1", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.5).
				WithPaperHeight(11.0).
				WithMarginTop(0.9).
				WithMarginBottom(0.8).
				WithMarginLeft(0.7).
				WithMarginRight(0.7).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(pageHeader(job)).
				WithFooterTemplate(pageFooter).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}

	return &Result{
		Data:     pdfData,
		Filename: exportFilename(job.Title, job.InterviewID) + ".pdf",
		MimeType: "application/pdf",
	}, nil
}

// Chrome fills pageNumber and totalPages spans in header/footer templates.
const pageFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

func pageHeader(job printJob) string {
	label := html.EscapeString(job.Title)
	if job.InterviewID != "" {
		label += " &middot; Interview " + html.EscapeString(job.InterviewID)
	}
	return `<div style="font-size:8px;width:100%;padding:0 0.7in;color:#666;">` + label + `</div>`
}

// exportFilename turns a title into a download name. Untitled exports are
// named after the interview.
func exportFilename(title, interviewID string) string {
	if name := slug(title); name != "" {
		return name
	}
	if id := slug(interviewID); id != "" {
		return "interview-" + id
	}
	return "interview"
}

func slug(s string) string {
	var b strings.Builder
	count := 0
	dash := false
	for _, r := range s {
		if count >= maxFilenameRunes {
			break
		}
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_':
			b.WriteRune(r)
			dash = false
		case r == '-' || unicode.IsSpace(r):
			if dash || b.Len() == 0 {
				continue
			}
			b.WriteByte('-')
			dash = true
		default:
			continue
		}
		count++
	}
	return strings.TrimRight(b.String(), "-")
}
