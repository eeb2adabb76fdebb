package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/store"
)

// Renderer implements render.Renderer for terminal sessions. It reads the
// page data keys the HTTP handlers use: "result" (*estimate.Result),
// "records" ([]store.Record), "message", "status" and "errors".
type Renderer struct {
	cfg config
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a terminal renderer with defaults (pretty text output).
func New(options ...Option) *Renderer {
	return &Renderer{cfg: newConfig(options)}
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	if r.cfg.outputFormat == OutputFormatJSON {
		return "application/json"
	}
	return "text/plain; charset=utf-8"
}

// Render serializes page for a terminal.
func (r *Renderer) Render(ctx context.Context, page render.Page, data map[string]any, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.cfg.outputFormat == OutputFormatJSON {
		payload, err := json.MarshalIndent(jsonPayload(page, data, opts), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode %s: %w", page, err)
		}
		return append(payload, '\n'), nil
	}

	p := printer{r: r, opts: opts}
	switch page {
	case render.PageIndex:
		p.line(p.t("page.title", "Domain Estimator"))
	case render.PageResult:
		res, ok := data["result"].(*estimate.Result)
		if !ok || res == nil {
			return nil, errors.New("tui: result page needs an *estimate.Result")
		}
		p.result(res)
	case render.PageHistory:
		records, _ := data["records"].([]store.Record)
		p.history(records)
	case render.PageError:
		p.failure(data)
	default:
		return nil, fmt.Errorf("tui: unknown page %q", page)
	}
	return p.buf.Bytes(), p.err
}

func jsonPayload(page render.Page, data map[string]any, opts render.RenderOptions) any {
	switch page {
	case render.PageResult:
		return data["result"]
	case render.PageHistory:
		if records, ok := data["records"].([]store.Record); ok && records != nil {
			return records
		}
		return []store.Record{}
	case render.PageError:
		out := map[string]any{"status": data["status"], "message": data["message"]}
		if errs := mergedErrors(data, opts); len(errs) > 0 {
			out["errors"] = errs
		}
		return out
	default:
		return map[string]any{"page": string(page)}
	}
}

func mergedErrors(data map[string]any, opts render.RenderOptions) []string {
	extra, _ := data["errors"].([]string)
	return render.MergeFormErrors(opts.Errors, extra...)
}

type printer struct {
	r    *Renderer
	opts render.RenderOptions
	buf  bytes.Buffer
	err  error
}

func (p *printer) t(key, fallback string) string {
	locale := p.opts.Locale
	if locale == "" {
		locale = p.r.cfg.guard.Locale
	}
	translator := p.opts.Translator
	if translator == nil {
		translator = p.r.cfg.translator
	}
	return render.Translate(locale, key, fallback, translator, p.opts.OnMissing)
}

func (p *printer) line(s string) {
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

func (p *printer) table(rows [][]string) {
	tw := tabwriter.NewWriter(&p.buf, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tw, "  "+strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil && p.err == nil {
		p.err = err
	}
}

func (p *printer) result(res *estimate.Result) {
	p.line(res.Domain)
	p.table([][]string{
		{p.t("result.price", "Conservative price"), humanize.CommafWithDigits(res.Price, 2)},
		{p.t("result.grade", "Grade"), fmt.Sprintf("%+.1f", res.Grade)},
	})
	p.attributes(p.t("result.base", "Base attributes"), res.BaseAttributes)
	p.attributes(p.t("result.other", "Other attributes"), res.OtherAttributes)
}

func (p *printer) attributes(title string, attrs []estimate.Attribute) {
	p.line(title)
	if len(attrs) == 0 {
		p.line("  -")
		return
	}
	rows := make([][]string, 0, len(attrs))
	for _, attr := range attrs {
		rows = append(rows, []string{
			attr.Name,
			attr.Description,
			fmt.Sprintf("x%.2f", attr.PriceFactor),
			fmt.Sprintf("%+.1f", attr.GradeFactor),
		})
	}
	p.table(rows)
}

func (p *printer) history(records []store.Record) {
	p.line(p.t("history.title", "History"))
	if len(records) == 0 {
		p.line("  " + p.t("history.empty", "No records yet"))
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Domain,
			humanize.CommafWithDigits(rec.Price, 2),
			fmt.Sprintf("%+.1f", rec.Grade),
			humanize.Time(rec.EstimatedAt),
		})
	}
	p.table(rows)
}

func (p *printer) failure(data map[string]any) {
	p.line(p.t("error.title", "Something went wrong"))
	if msg, ok := data["message"].(string); ok && msg != "" {
		p.line("  " + msg)
	}
	for _, msg := range mergedErrors(data, p.opts) {
		p.line("  - " + msg)
	}
}
