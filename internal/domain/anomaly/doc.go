// Package anomaly contains core domain types for log anomaly detection.
//
// It defines Analysis (the verdict for a single journal entry) and Event
// (a recorded detection) shared by the detection engine, the monitor and
// analyzer services, and the history repository.
package anomaly
