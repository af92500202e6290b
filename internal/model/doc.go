// Package model defines the data structures shared across origincheck.
//
// This package contains the following main types:
//   - User and Session: the signed-in identity held by the session store
//   - JobStatus and Job: the lifecycle state of one analysis request
//   - AnalysisResult and Citation: what the analysis service returns and
//     how overlap sources are projected for display
//   - ReportSummary and DashboardStats: read-only history projections
//
// Models live in their own package because the session, job, report and
// api packages all exchange them. JSON tags match the wire format of the
// analysis service.
package model
