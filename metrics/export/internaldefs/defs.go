package internaldefs

import "github.com/hallpass-io/hallpass"

// CounterDef binds a counter ID to its exported name and help text. The
// prometheus and otel exporters share this table so the two surfaces never
// drift.
type CounterDef struct {
	ID   hallpass.MetricID
	Name string
	Help string
}

// AuditDroppedName is the exported name of the audit backpressure counter,
// which lives outside the metric set proper.
const AuditDroppedName = "hallpass_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{hallpass.MetricLoginSuccess, "hallpass_login_success_total", "Successful logins."},
	{hallpass.MetricLoginFailure, "hallpass_login_failure_total", "Rejected logins (unknown account or wrong password)."},
	{hallpass.MetricLoginDenied, "hallpass_login_denied_total", "Logins denied by admission control."},
	{hallpass.MetricRefreshSuccess, "hallpass_refresh_success_total", "Successful refresh rotations."},
	{hallpass.MetricRefreshFailure, "hallpass_refresh_failure_total", "Rejected refreshes (signature, subject mismatch, missing principal)."},
	{hallpass.MetricRefreshReplay, "hallpass_refresh_replay_total", "Refresh attempts against an already-consumed or unknown binding."},
	{hallpass.MetricLogout, "hallpass_logout_total", "Single-session logouts."},
	{hallpass.MetricLogoutAll, "hallpass_logout_all_total", "Full-subject revocations."},
	{hallpass.MetricCSRFIssued, "hallpass_csrf_issued_total", "CSRF tokens issued."},
	{hallpass.MetricCSRFRejected, "hallpass_csrf_rejected_total", "CSRF validations that did not match the live binding."},
	{hallpass.MetricStoreError, "hallpass_store_error_total", "Session store failures observed by the manager."},
}
