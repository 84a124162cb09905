// Package output implements the live-updating terminal progress display,
// adapted directly from the teacher's internal/output/manager.go: one
// registered job per download, a ticking redraw goroutine, status styling,
// and a final summary — generalized here from chunk counters to the
// segment/byte counters the scheduler and httpfile packages report.
package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobOutput tracks the live display state of a single download job.
type JobOutput struct {
	ID            int
	JobID         string
	URL           string
	Status        string // pending, running, success, error
	Message       string
	Complete      bool
	StartTime     time.Time
	LastUpdated   time.Time
	Error         error
	Index         int
	SegmentsDone  int
	SegmentsTotal int
	BytesWritten  int64
}

type errorReport struct {
	url  string
	err  error
	when time.Time
}

// Manager drives the terminal progress display across one or more
// concurrently running jobs (a single HLS/HTTP download, or every entry of
// a batch job list).
type Manager struct {
	mu      sync.RWMutex
	jobs    map[int]*JobOutput
	errors  []errorReport
	count   int
	numLine int

	doneCh    chan struct{}
	tick      time.Duration
	displayWg sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		jobs:   make(map[int]*JobOutput),
		doneCh: make(chan struct{}),
		tick:   300 * time.Millisecond,
	}
}

// RegisterJob adds a job to the display, returning its display ID.
func (m *Manager) RegisterJob(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.jobs[m.count] = &JobOutput{
		ID:          m.count,
		JobID:       uuid.NewString(),
		URL:         url,
		Status:      "pending",
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.count,
	}
	return m.count
}

func (m *Manager) SetStatus(id int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = status
		j.LastUpdated = time.Now()
	}
}

func (m *Manager) SetMessage(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Message = message
		j.LastUpdated = time.Now()
	}
}

// UpdateProgress records the scheduler/httpfile progress callback for job id.
func (m *Manager) UpdateProgress(id, segmentsDone, segmentsTotal int, bytesWritten int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Status = "running"
		j.SegmentsDone = segmentsDone
		j.SegmentsTotal = segmentsTotal
		j.BytesWritten = bytesWritten
		j.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		if message == "" {
			message = fmt.Sprintf("Completed %s", j.URL)
		}
		j.Message = message
		j.Complete = true
		j.Status = "success"
		j.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.Complete = true
		j.Status = "error"
		j.Error = err
		j.LastUpdated = time.Now()
		m.errors = append(m.errors, errorReport{url: j.URL, err: err, when: time.Now()})
	}
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(symbols["pass"])
	case "error":
		return errorStyle.Render(symbols["fail"])
	case "warning":
		return warningStyle.Render(symbols["warning"])
	case "pending":
		return pendingStyle.Render(symbols["pending"])
	default:
		return infoStyle.Render(symbols["bullet"])
	}
}

func (m *Manager) sortedJobs() []*JobOutput {
	all := make([]*JobOutput, 0, len(m.jobs))
	for _, j := range m.jobs {
		all = append(all, j)
	}
	sort.Slice(all, func(i, k int) bool { return all[i].Index < all[k].Index })
	return all
}

func (m *Manager) updateDisplay() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	available := terminalHeight() - 3
	if available < 1 {
		available = 1
	}

	if m.numLine > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLine)
	}

	lines := 0
	for _, j := range m.sortedJobs() {
		if lines >= available {
			break
		}
		elapsed := time.Since(j.StartTime).Round(time.Second)
		if j.Complete {
			elapsed = j.LastUpdated.Sub(j.StartTime).Round(time.Second)
		}

		var styled string
		switch j.Status {
		case "success":
			styled = successStyle.Render(j.Message)
		case "error":
			styled = errorStyle.Render(j.Message)
		default:
			styled = pendingStyle.Render(j.Message)
		}
		fmt.Printf("  %s %s %s\n", statusIndicator(j.Status), debugStyle.Render(elapsed.String()), styled)
		lines++

		if !j.Complete && j.SegmentsTotal > 0 && lines < available {
			bar := ProgressBar(int64(j.SegmentsDone), int64(j.SegmentsTotal), 30)
			secs := time.Since(j.StartTime).Seconds()
			detail := fmt.Sprintf("%s segment %d/%d %s %s", bar, j.SegmentsDone, j.SegmentsTotal,
				symbols["bullet"], FormatSpeed(j.BytesWritten, secs))
			fmt.Printf("%s%s\n", strings.Repeat(" ", 6), streamStyle.Render(detail))
			lines++
		}
	}
	m.numLine = lines
}

// StartDisplay begins the periodic redraw goroutine.
func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				m.showSummary()
				return
			}
		}
	}()
}

// StopDisplay signals the redraw goroutine to draw a final frame, print the
// summary, and exit.
func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) showSummary() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fmt.Println()
	var success, failed int
	for _, j := range m.jobs {
		switch j.Status {
		case "success":
			success++
		case "error":
			failed++
		}
	}
	fmt.Println("  " + success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.jobs))))
	if failed > 0 {
		fmt.Println("  " + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failed, len(m.jobs))))
	}
	for i, e := range m.errors {
		fmt.Printf("    %s [%s] %s\n",
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			e.when.Format("15:04:05"),
			errorStyle.Render(fmt.Sprintf("%s: %v", e.url, e.err)))
	}
	fmt.Println()
}
