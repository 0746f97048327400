// Package policy provides optional declarative admission rules applied when
// processes are submitted to the scheduler, for example to require human
// approval for selected programs or to refuse submissions outright. It is
// deliberately decoupled from the scheduler: callers that do not embed the
// Policy in their context keep the default "auto" behaviour.
package policy
