package artifacts

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/shehryarbajwa/e2e-harness/pkg/models"
)

const defaultProject = "Demo"

var defaultTags = []string{"go test", "playwright", "selenium"}

// Metadata heads the report
type Metadata struct {
	Project       string
	PersonRunning string
	Tags          []string
	Browser       models.Browser
	// Host, Platform and BrowserVersion are only set for remote grids
	Host           string
	Platform       string
	BrowserVersion string
}

// MetadataFor describes a run of cfg
func MetadataFor(cfg models.RunConfiguration) Metadata {
	meta := Metadata{
		Project:       defaultProject,
		PersonRunning: currentUser(),
		Tags:          append([]string(nil), defaultTags...),
		Browser:       cfg.Browser,
	}
	if cfg.Host.IsRemoteGrid() {
		meta.Host = cfg.Host.Family()
		meta.Platform = cfg.Platform
		meta.BrowserVersion = cfg.BrowserVersion
	}
	return meta
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// Report collects results from tests finishing in parallel
type Report struct {
	meta    Metadata
	started time.Time

	mu      sync.Mutex
	results []models.TestResult
}

func NewReport(meta Metadata, started time.Time) *Report {
	return &Report{meta: meta, started: started}
}

func (r *Report) Record(result models.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Results returns a copy ordered by finish time
func (r *Report) Results() []models.TestResult {
	r.mu.Lock()
	out := append([]models.TestResult(nil), r.results...)
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.Before(out[j].FinishedAt)
	})
	return out
}

// Counts returns the number of passed and failed results
func (r *Report) Counts() (passed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Outcome == models.OutcomeFailed {
			failed++
		} else {
			passed++
		}
	}
	return passed, failed
}

type reportRow struct {
	models.TestResult
	Image template.URL
}

type reportView struct {
	Meta     Metadata
	Started  time.Time
	Duration time.Duration
	Passed   int
	Failed   int
	Rows     []reportRow
}

// Write renders a self-contained HTML report; screenshots are inlined
func (r *Report) Write(path string, finished time.Time) error {
	passed, failed := r.Counts()
	view := reportView{
		Meta:     r.meta,
		Started:  r.started,
		Duration: finished.Sub(r.started).Round(time.Millisecond),
		Passed:   passed,
		Failed:   failed,
	}

	for _, res := range r.Results() {
		row := reportRow{TestResult: res}
		if res.Screenshot != "" {
			if png, err := os.ReadFile(res.Screenshot); err == nil {
				row.Image = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
			}
		}
		view.Rows = append(view.Rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	if err := reportTemplate.Execute(file, view); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Meta.Project}} test report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; vertical-align: top; }
.passed { color: #2a7a2a; }
.failed { color: #b22222; }
img { max-width: 480px; }
</style>
</head>
<body>
<h1>{{.Meta.Project}} test report</h1>
<h2>Environment</h2>
<table>
<tr><th>project</th><td>{{.Meta.Project}}</td></tr>
<tr><th>person running</th><td>{{.Meta.PersonRunning}}</td></tr>
<tr><th>tags</th><td>{{range $i, $t := .Meta.Tags}}{{if $i}}, {{end}}{{$t}}{{end}}</td></tr>
<tr><th>browser</th><td>{{.Meta.Browser}}</td></tr>
{{- if .Meta.Host}}
<tr><th>host</th><td>{{.Meta.Host}}</td></tr>
<tr><th>platform</th><td>{{.Meta.Platform}}</td></tr>
<tr><th>browser version</th><td>{{.Meta.BrowserVersion}}</td></tr>
{{- end}}
</table>
<h2>Summary</h2>
<p>Started {{.Started.Format "2006-01-02 15:04:05"}}, took {{.Duration}}. {{.Passed}} passed, {{.Failed}} failed.</p>
<h2>Results</h2>
<table>
<tr><th>Result</th><th>Test</th><th>Session</th><th>Duration</th><th>Details</th></tr>
{{- range .Rows}}
<tr>
<td class="{{.Outcome}}">{{.Outcome}}</td>
<td>{{.Name}}</td>
<td>{{.SessionID}}</td>
<td>{{.Duration}}</td>
<td>{{range .Notes}}<div>{{.}}</div>{{end}}{{if .Image}}<img src="{{.Image}}" alt="screenshot">{{end}}</td>
</tr>
{{- end}}
</table>
</body>
</html>
`))
