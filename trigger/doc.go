// Package trigger turns events into pipeline runs. A dispatcher assigns
// each event a fresh run id, executes the matching pipeline on a worker
// pool, and retries failed runs with exponential backoff. Because steps
// are durable, a retried run resumes after the last completed step.
package trigger
