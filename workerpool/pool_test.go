package workerpool

import (
	"strings"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(4)
	defer p.Finish()

	var n int64
	const jobs = 50
	for i := 0; i < jobs; i++ {
		p.AddJob(func() { atomic.AddInt64(&n, 1) })
	}
	if err := p.WaitForAllJobs(); err != nil {
		t.Fatalf("WaitForAllJobs: %v", err)
	}
	if got := atomic.LoadInt64(&n); got != jobs {
		t.Fatalf("expected %d jobs run, got %d", jobs, got)
	}
}

func TestPoolRecoversPanicsAndReportsThem(t *testing.T) {
	p := New(2)
	defer p.Finish()

	p.AddJob(func() { panic("boom") })
	p.AddJob(func() {})
	p.AddJob(func() { panic("bang") })

	err := p.WaitForAllJobs()
	if err == nil {
		t.Fatal("expected an error summarizing the recovered panics")
	}
	if !strings.Contains(err.Error(), "boom") && !strings.Contains(err.Error(), "bang") {
		t.Fatalf("expected the error to mention a recovered panic value, got %v", err)
	}
}

func TestPoolWaitForAllJobsIsReusable(t *testing.T) {
	p := New(2)
	defer p.Finish()

	p.AddJob(func() {})
	if err := p.WaitForAllJobs(); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	p.AddJob(func() {})
	if err := p.WaitForAllJobs(); err != nil {
		t.Fatalf("second wait: %v", err)
	}
}

func TestNewDefaultsToAtLeastOneWorker(t *testing.T) {
	p := New(0)
	defer p.Finish()

	done := make(chan struct{})
	p.AddJob(func() { close(done) })
	if err := p.WaitForAllJobs(); err != nil {
		t.Fatalf("WaitForAllJobs: %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("job did not run")
	}
}
