// Package process runs one external command and normalizes its outcome into
// a model.ExecutionResult.
//
// Output and error streams are captured asynchronously while the calling
// goroutine polls for completion, reports progress and enforces the timeout.
// On expiry the whole process group is killed. Start failures caused by a
// freshly written binary still being locked are retried a bounded number of
// times.
package process
