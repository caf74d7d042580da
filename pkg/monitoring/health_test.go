package monitoring

import (
	"testing"
)

func TestHealthChecker_Basic(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %q", status.Status)
	}
}

func TestHealthChecker_DegradedDoesNotFail(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("cache", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	status := hc.CheckHealth()
	if status.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %q", status.Status)
	}
}

func TestHealthChecker_AnyUnhealthyWins(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("cache", func() CheckResult { return CheckResult{Status: StatusDegraded} })
	hc.AddCheck("db", func() CheckResult { return CheckResult{Status: StatusUnhealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %q", status.Status)
	}
}

func TestHealthChecker_UnknownStatusIsUnhealthy(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("weird", func() CheckResult { return CheckResult{Status: "???"} })
	status := hc.CheckHealth()
	if status.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %q", status.Status)
	}
}
